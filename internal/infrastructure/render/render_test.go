package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeFiles(t *testing.T, n int) string {
	t.Helper()
	faker := gofakeit.New(42)

	files := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, map[string]interface{}{
			"id":           faker.UUID(),
			"name":         fmt.Sprintf("%s-%d.pdf", faker.Word(), i),
			"mimeType":     "application/pdf",
			"modifiedTime": faker.Date().UTC().Format(time.RFC3339),
			"webViewLink":  "https://drive.google.com/file/d/" + faker.UUID() + "/view",
		})
	}

	data, err := json.Marshal(map[string]interface{}{"files": files})
	require.NoError(t, err)
	return string(data)
}

func TestRender_EmptyFileListing(t *testing.T) {
	out := Render(`{"files":[]}`)

	assert.Contains(t, out, "No files found")
	assert.NotContains(t, out, "1.")
}

func TestRender_FileListingEntry(t *testing.T) {
	out := Render(`{"files":[{"id":"1","name":"a.pdf","mimeType":"application/pdf"}]}`)

	assert.Contains(t, out, IconPDF)
	assert.Contains(t, out, "**a.pdf**")
	assert.Contains(t, out, "Found 1 file")
	assert.NotContains(t, out, "Modified:")
}

func TestRender_FileListingDateAndLink(t *testing.T) {
	out := Render(`{"files":[{
		"id":"1","name":"Budget","mimeType":"application/vnd.google-apps.spreadsheet",
		"modifiedTime":"2024-03-05T10:00:00.000Z",
		"webViewLink":"https://docs.google.com/spreadsheets/d/abc/edit"
	}]}`)

	assert.Contains(t, out, IconSpreadsheet+" **Budget**")
	assert.Contains(t, out, "Modified: Mar 5, 2024")
	assert.Contains(t, out, "[Open Spreadsheet](https://docs.google.com/spreadsheets/d/abc/edit)")
}

func TestRender_FileListingTruncates(t *testing.T) {
	out := Render(fakeFiles(t, 18))

	assert.Contains(t, out, "Found 18 files")
	assert.Contains(t, out, "\n15. ")
	assert.NotContains(t, out, "\n16. ")
	assert.Contains(t, out, "...and 3 more files")
}

func TestMarkdown_CustomListLimit(t *testing.T) {
	out := Markdown{MaxListEntries: 2}.Render(fakeFiles(t, 3))

	assert.Contains(t, out, "\n2. ")
	assert.NotContains(t, out, "\n3. ")
	assert.Contains(t, out, "...and 1 more file")
}

func TestRender_FormListing(t *testing.T) {
	out := Render(`{"forms":[
		{"formId":"f1","info":{"title":"Survey"},"responderUri":"https://docs.google.com/forms/d/e/f1/viewform"},
		{"title":"Quiz"}
	]}`)

	assert.Contains(t, out, "Found 2 forms")
	assert.Contains(t, out, "1. **Survey**")
	assert.Contains(t, out, "ID: `f1`")
	assert.Contains(t, out, "[Open Form](https://docs.google.com/forms/d/e/f1/viewform)")
	assert.Contains(t, out, "2. **Quiz**")
}

func TestRender_EmptyFormListing(t *testing.T) {
	assert.Contains(t, Render(`{"forms":[]}`), "No forms found")
}

func TestRender_EmailListing(t *testing.T) {
	out := Render(`{"messages":[
		{"id":"m1","from":"Alice <alice@example.com>","subject":"Lunch","date":"2024-01-02T12:00:00Z","snippet":"Are you free?"},
		{"id":"m2"}
	]}`)

	assert.Contains(t, out, IconEmail+" **Found 2 emails**")
	assert.Contains(t, out, "1. **Lunch**")
	assert.Contains(t, out, "From: Alice <alice@example.com>")
	assert.Contains(t, out, "Date: Jan 2, 2024")
	assert.Contains(t, out, "> Are you free?")
	assert.Contains(t, out, "2. **(no subject)**")
}

func TestRender_DetailCard(t *testing.T) {
	out := Render(`{
		"id":"1","name":"report.pdf","mimeType":"application/pdf","size":"1536",
		"modifiedTime":"2024-03-05T10:00:00Z","createdTime":"2023-12-31T23:00:00Z",
		"webViewLink":"https://drive.google.com/file/d/1/view"
	}`)

	assert.True(t, strings.HasPrefix(out, IconPDF+" **report.pdf**"))
	assert.Contains(t, out, "- **Type:** application/pdf")
	assert.Contains(t, out, "- **Size:** 1.5 KB")
	assert.Contains(t, out, "- **Modified:** Mar 5, 2024")
	assert.Contains(t, out, "- **Created:** Dec 31, 2023")
	assert.Contains(t, out, "[Open in Drive](https://drive.google.com/file/d/1/view)")
}

func TestRender_DetailCardNumericSize(t *testing.T) {
	out := Render(`{"id":"1","name":"clip.mp4","mimeType":"video/mp4","size":5242880}`)

	assert.Contains(t, out, IconVideo)
	assert.Contains(t, out, "- **Size:** 5 MB")
}

func TestRender_CreatedFormCard(t *testing.T) {
	out := Render(`{"formId":"abc","info":{"title":"Feedback"},"responderUri":"https://docs.google.com/forms/d/e/abc/viewform"}`)

	assert.Contains(t, out, IconSuccess)
	assert.Contains(t, out, "**Title:** Feedback")
	assert.Contains(t, out, "**Form ID:** `abc`")
	assert.Contains(t, out, "[Open Form](https://docs.google.com/forms/d/e/abc/viewform)")
}

func TestRender_GenericJSONCodeBlock(t *testing.T) {
	out := Render(`{"status":"ok","count":3,"nested":{"a":[1,2]}}`)

	assert.True(t, strings.HasPrefix(out, "```json\n"))
	assert.True(t, strings.HasSuffix(out, "\n```"))
	assert.Contains(t, out, "\n  \"status\": \"ok\",\n")
	assert.Contains(t, out, "\n  \"count\": 3,\n")
	assert.Less(t, strings.Index(out, "status"), strings.Index(out, "count"), "keys keep their order")
}

func TestRender_NonObjectJSONIsCodeBlock(t *testing.T) {
	for _, raw := range []string{`[1,2,3]`, `42`, `"quoted"`, `true`, `null`} {
		out := Render(raw)
		assert.True(t, strings.HasPrefix(out, "```json\n"), raw)
	}
}

func TestRender_PlainTextLinkified(t *testing.T) {
	out := Render("Your document is ready: https://docs.google.com/document/d/xyz/edit.")

	assert.Equal(t, "Your document is ready: [Open Document](https://docs.google.com/document/d/xyz/edit).", out)
}

func TestRender_PreformattedOnlyLinkified(t *testing.T) {
	raw := `Successfully created folder {"id":"1","name":"x"} at https://drive.google.com/drive/folders/1`

	out := Render(raw)

	assert.Equal(t, `Successfully created folder {"id":"1","name":"x"} at [Open in Drive](https://drive.google.com/drive/folders/1)`, out)
}

func TestRender_InvalidJSONDegradesToText(t *testing.T) {
	for _, raw := range []string{`{"files": [`, `{} trailing`, ``, `{"a":1}{"b":2}`} {
		assert.NotPanics(t, func() { Render(raw) })
		assert.False(t, strings.HasPrefix(Render(raw), "```"), raw)
	}
}

func TestRender_UnexpectedShapesDoNotPanic(t *testing.T) {
	inputs := []string{
		`{"files":[null, 3, "x", {"name": 5}]}`,
		`{"forms":[[]]}`,
		`{"messages":[{"subject":{"nested":true}}]}`,
		`{"id":"1","name":"n","size":"huge"}`,
		`{"files":"not a list"}`,
	}
	for _, raw := range inputs {
		assert.NotPanics(t, func() { Render(raw) }, raw)
	}
}

func TestRender_DoesNotMutateInput(t *testing.T) {
	raw := fakeFiles(t, 2)
	before := string([]byte(raw))
	Render(raw)
	assert.Equal(t, before, raw)
}

func TestLinkify_Idempotent(t *testing.T) {
	inputs := []string{
		"see https://example.com/a and http://forms.gle/xyz",
		"already [Open Link](https://example.com) linked",
		"[https://example.com](https://example.com)",
		"no links here",
	}
	for _, in := range inputs {
		once := Linkify(in)
		assert.Equal(t, once, Linkify(once), in)
	}
}

func TestLinkify_SkipsExistingMarkdownLinks(t *testing.T) {
	in := "[Docs](https://docs.google.com/document/d/1) and https://example.com"

	assert.Equal(t, "[Docs](https://docs.google.com/document/d/1) and [Open Link](https://example.com)", Linkify(in))
}

func TestLinkify_Parentheses(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"balanced parens kept",
			"see https://en.wikipedia.org/wiki/Go_(programming_language) now",
			"see [Open Link](https://en.wikipedia.org/wiki/Go_(programming_language)) now",
		},
		{
			"wrapping paren dropped",
			"(details at https://example.com/a)",
			"(details at [Open Link](https://example.com/a))",
		},
		{
			"paren then full stop",
			"Read it (https://en.wikipedia.org/wiki/Go_(programming_language)).",
			"Read it ([Open Link](https://en.wikipedia.org/wiki/Go_(programming_language))).",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Linkify(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Linkify(got))
		})
	}
}

func TestLinkLabel(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://docs.google.com/forms/d/e/1/viewform", "Open Form"},
		{"https://forms.gle/abc", "Open Form"},
		{"https://docs.google.com/document/d/1/edit", "Open Document"},
		{"https://docs.google.com/spreadsheets/d/1/edit", "Open Spreadsheet"},
		{"https://docs.google.com/presentation/d/1/edit", "Open Link"},
		{"https://drive.google.com/file/d/1/view", "Open in Drive"},
		{"https://example.com/forms/docs", "Open Link"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, LinkLabel(tt.url))
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes float64
		want  string
	}{
		{0, "0 Bytes"},
		{1, "1 Bytes"},
		{500, "500 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{1234567, "1.18 MB"},
		{1073741824, "1 GB"},
		{1099511627776, "1024 GB"},
		{0.5, "0.5 Bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSize(tt.bytes))
		})
	}
}

func TestIconFor(t *testing.T) {
	tests := []struct {
		mimeType string
		want     string
	}{
		{"application/vnd.google-apps.folder", IconFolder},
		{"application/vnd.google-apps.document", IconDocument},
		{"application/vnd.google-apps.spreadsheet", IconSpreadsheet},
		{"application/vnd.google-apps.presentation", IconPresentation},
		{"image/png", IconImage},
		{"application/pdf", IconPDF},
		{"video/mp4", IconVideo},
		{"audio/mpeg", IconAudio},
		{"application/vnd.google-apps.form", IconForm},
		{"text/plain", IconGeneric},
		{"", IconGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			assert.Equal(t, tt.want, IconFor(tt.mimeType))
		})
	}
}

func TestFormatDate_Unparseable(t *testing.T) {
	assert.Equal(t, "yesterday", FormatDate("yesterday"))
	assert.Equal(t, "", FormatDate(""))
}
