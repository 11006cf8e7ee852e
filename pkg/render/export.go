package render

import (
	"fmt"
	"regexp"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// richTextPolicy keeps the markup the layout formatter and renderer produce
// and strips everything else, scripts included.
var richTextPolicy = newRichTextPolicy()

func newRichTextPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("details", "summary", "nav", "main", "section", "aside", "span", "div")
	policy.AllowAttrs("class", "id").Globally()
	policy.AllowAttrs("open").OnElements("details")
	policy.AllowDataAttributes()
	policy.AllowStyles("margin-left").Matching(regexp.MustCompile(`^\d+px$`)).Globally()
	policy.AllowStyles("display").MatchingEnum("flex", "block", "inline-block").Globally()
	policy.AllowStyles("list-style").MatchingEnum("none").Globally()
	policy.AllowStyles("padding-left").Matching(regexp.MustCompile(`^\d+(px)?$`)).Globally()
	return policy
}

// Sanitize strips markup unsafe for embedding into a rich-text field.
func Sanitize(htmlText string) string {
	return richTextPolicy.Sanitize(htmlText)
}

var markdownConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// ToMarkdown converts rendered or formatted HTML to CommonMark.
func ToMarkdown(htmlText string) (string, error) {
	markdown, err := markdownConverter.ConvertString(htmlText)
	if err != nil {
		return "", fmt.Errorf("converting to markdown: %w", err)
	}
	return markdown, nil
}
