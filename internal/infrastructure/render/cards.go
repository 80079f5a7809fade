package render

import (
	"fmt"
	"strings"
)

func (m Markdown) fileListing(files []interface{}) string {
	if len(files) == 0 {
		return IconFolder + " No files found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s **Found %s**\n", IconFolder, plural(len(files), "file"))

	shown := files
	if len(shown) > m.limit() {
		shown = shown[:m.limit()]
	}

	for i, item := range shown {
		f, _ := item.(map[string]interface{})
		name := firstNonEmpty(getString(f, "name"), getString(f, "title"), "(untitled)")

		fmt.Fprintf(&b, "\n%d. %s **%s**\n", i+1, IconFor(getString(f, "mimeType")), name)
		if modified := getString(f, "modifiedTime"); modified != "" {
			fmt.Fprintf(&b, "   Modified: %s\n", FormatDate(modified))
		}
		if link := firstNonEmpty(getString(f, "webViewLink"), getString(f, "webContentLink")); link != "" {
			fmt.Fprintf(&b, "   %s\n", Link(link))
		}
	}

	if rest := len(files) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "\n_...and %s more_\n", plural(rest, "file"))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m Markdown) formListing(forms []interface{}) string {
	if len(forms) == 0 {
		return IconForm + " No forms found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s **Found %s**\n", IconForm, plural(len(forms), "form"))

	shown := forms
	if len(shown) > m.limit() {
		shown = shown[:m.limit()]
	}

	for i, item := range shown {
		f, _ := item.(map[string]interface{})
		title := firstNonEmpty(getString(f, "title"), getString(getObject(f, "info"), "title"), getString(f, "name"), "(untitled form)")

		fmt.Fprintf(&b, "\n%d. **%s**\n", i+1, title)
		if id := firstNonEmpty(getString(f, "formId"), getString(f, "id")); id != "" {
			fmt.Fprintf(&b, "   ID: `%s`\n", id)
		}
		if link := getString(f, "responderUri"); link != "" {
			fmt.Fprintf(&b, "   %s\n", Link(link))
		}
	}

	if rest := len(forms) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "\n_...and %s more_\n", plural(rest, "form"))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m Markdown) emailListing(messages []interface{}) string {
	if len(messages) == 0 {
		return IconEmail + " No emails found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s **Found %s**\n", IconEmail, plural(len(messages), "email"))

	shown := messages
	if len(shown) > m.limit() {
		shown = shown[:m.limit()]
	}

	for i, item := range shown {
		e, _ := item.(map[string]interface{})
		subject := firstNonEmpty(getString(e, "subject"), "(no subject)")

		fmt.Fprintf(&b, "\n%d. **%s**\n", i+1, subject)
		if from := getString(e, "from"); from != "" {
			fmt.Fprintf(&b, "   From: %s\n", from)
		}
		if date := getString(e, "date"); date != "" {
			fmt.Fprintf(&b, "   Date: %s\n", FormatDate(date))
		}
		if snippet := strings.TrimSpace(getString(e, "snippet")); snippet != "" {
			fmt.Fprintf(&b, "   > %s\n", snippet)
		}
	}

	if rest := len(messages) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "\n_...and %s more_\n", plural(rest, "email"))
	}

	return strings.TrimRight(b.String(), "\n")
}

func detailCard(obj map[string]interface{}) string {
	mimeType := getString(obj, "mimeType")

	var b strings.Builder
	fmt.Fprintf(&b, "%s **%s**\n", IconFor(mimeType), getString(obj, "name"))

	var lines []string
	if mimeType != "" {
		lines = append(lines, fmt.Sprintf("- **Type:** %s", mimeType))
	}
	if size, ok := getNumber(obj, "size"); ok {
		lines = append(lines, fmt.Sprintf("- **Size:** %s", FormatSize(size)))
	}
	if modified := getString(obj, "modifiedTime"); modified != "" {
		lines = append(lines, fmt.Sprintf("- **Modified:** %s", FormatDate(modified)))
	}
	if created := getString(obj, "createdTime"); created != "" {
		lines = append(lines, fmt.Sprintf("- **Created:** %s", FormatDate(created)))
	}
	if len(lines) > 0 {
		b.WriteString("\n" + strings.Join(lines, "\n") + "\n")
	}

	if link := firstNonEmpty(getString(obj, "webViewLink"), getString(obj, "webContentLink")); link != "" {
		fmt.Fprintf(&b, "\n%s\n", Link(link))
	}

	return strings.TrimRight(b.String(), "\n")
}

func createdFormCard(obj map[string]interface{}) string {
	title := firstNonEmpty(getString(getObject(obj, "info"), "title"), getString(obj, "title"), "(untitled form)")

	var b strings.Builder
	fmt.Fprintf(&b, "%s **Form created successfully!**\n\n", IconSuccess)
	fmt.Fprintf(&b, "**Title:** %s\n", title)
	fmt.Fprintf(&b, "**Form ID:** `%s`\n", getString(obj, "formId"))
	fmt.Fprintf(&b, "%s", Link(getString(obj, "responderUri")))
	return b.String()
}
