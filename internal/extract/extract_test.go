package extract

import "testing"

func TestExtractStripsMarkup(t *testing.T) {
	t.Parallel()

	e := New()
	html := `<html><head><style>body{color:red}</style></head>
<body><h1>Title</h1><script>var x = 1;</script><p>First  paragraph.</p></body></html>`

	got, err := e.Extract(html)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := "Title First paragraph."
	if got != want {
		t.Fatalf("Extract() = %q, want %q", got, want)
	}
}

func TestExtractPlainText(t *testing.T) {
	t.Parallel()

	e := New()
	got, err := e.Extract("just text")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "just text" {
		t.Fatalf("Extract() = %q", got)
	}
}
