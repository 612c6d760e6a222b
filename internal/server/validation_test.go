package server

import "testing"

func TestIsAllowedFile(t *testing.T) {
	allowed := []string{"report.docx", "deck.PPTX", "sheet.xlsx", "a.b.xlsx"}
	for _, name := range allowed {
		if !isAllowedFile(name) {
			t.Errorf("expected %q to be allowed", name)
		}
	}

	denied := []string{"", "noext", "script.exe", "notes.txt", "archive.zip", "docx", "file."}
	for _, name := range denied {
		if isAllowedFile(name) {
			t.Errorf("expected %q to be denied", name)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.docx", "report.docx"},
		{"../../etc/passwd.docx", "passwd.docx"},
		{`C:\Users\x\deck.pptx`, "deck.pptx"},
		{"bad\"quote.xlsx", "badquote.xlsx"},
		{"ctrl\x01char.docx", "ctrlchar.docx"},
		{"  spaced.docx  ", "spaced.docx"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
