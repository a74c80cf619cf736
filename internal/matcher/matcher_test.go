package matcher

import (
	"slices"
	"strings"
	"testing"
)

// TestExtract covers the documented extraction scenarios in the default mode.
func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "single absolute link",
			html: `<a href="http://example.com/page">link</a>`,
			want: []string{"http://example.com/page"},
		},
		{
			name: "fragments collapse to one entry",
			html: `<a href="http://a.com/p#top">top</a><p>text</p><a href="http://a.com/p#bottom">bottom</a>`,
			want: []string{"http://a.com/p"},
		},
		{
			name: "anchor without href",
			html: `<a name="x">text</a>`,
			want: []string{},
		},
		{
			name: "fragment is stripped",
			html: `<a href="http://a.com/x#frag">x</a>`,
			want: []string{"http://a.com/x"},
		},
		{
			name: "trailing slash collapses",
			html: `<a href="http://a.com/x">x</a><a href="http://a.com/x/">x again</a>`,
			want: []string{"http://a.com/x"},
		},
		{
			name: "first seen order is kept",
			html: `<a href="http://b.org/2">2</a><a href="http://a.org/1">1</a><a href="http://b.org/2">2</a>`,
			want: []string{"http://b.org/2", "http://a.org/1"},
		},
		{
			name: "case insensitive tag and attribute",
			html: `<A HREF="HTTP://Example.COM/Page">x</A>`,
			want: []string{"HTTP://Example.COM/Page"},
		},
		{
			name: "whitespace around equals sign",
			html: `<a   href  =   "http://example.com/a">x</a>`,
			want: []string{"http://example.com/a"},
		},
		{
			name: "attributes before and after href",
			html: `<a id="top_link" href="https://www.example.com/docs/" target="_blank">docs</a>`,
			want: []string{"https://www.example.com/docs"},
		},
		{
			name: "query string is kept",
			html: `<a href="http://example.com/search?q=go+lang&page=2#results">s</a>`,
			want: []string{"http://example.com/search?q=go+lang&page=2"},
		},
		{
			name: "relative path with file extension",
			html: `<a href="/docs/intro.html">intro</a>`,
			want: []string{"/docs/intro.html"},
		},
		{
			name: "host only with trailing slash",
			html: `<a href="http://example.com/">home</a><a href="http://example.com">home</a>`,
			want: []string{"http://example.com"},
		},
		{
			name: "fragment only href yields nothing",
			html: `<a href="#top">top</a>`,
			want: []string{},
		},
		{
			name: "empty href yields nothing",
			html: `<a href="">nothing</a>`,
			want: []string{},
		},
		{
			name: "unsupported characters are skipped",
			html: `<a href="http://example.com/a%20b">x</a><a href="mailto:me@example.com">m</a><a href="http://example.com/ok">ok</a>`,
			want: []string{"http://example.com/ok"},
		},
		{
			name: "single label host is rejected",
			html: `<a href="http://localhost/x">x</a>`,
			want: []string{},
		},
		{
			name: "attribute with space in value defeats pattern",
			html: `<a class="nav main" href="http://example.com/a">x</a>`,
			want: []string{},
		},
		{
			name: "empty document",
			html: "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Extract(tt.html)
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestExtractDedupExact verifies the byte-for-byte de-duplication rule.
func TestExtractDedupExact(t *testing.T) {
	t.Parallel()

	html := `<a href="http://a.com/x">x</a><a href="http://a.com/x/">x</a><a href="http://a.com/x">x</a>`

	got := Extract(html, WithDedup(DedupExact))
	want := []string{"http://a.com/x", "http://a.com/x/"}
	if !slices.Equal(got, want) {
		t.Errorf("Extract() = %q, want %q", got, want)
	}
}

// TestExtractTokenizer verifies that the tokenizer mode shares the URL grammar
// but tolerates attribute noise that the pattern rejects.
func TestExtractTokenizer(t *testing.T) {
	t.Parallel()

	t.Run("tolerates complex attributes", func(t *testing.T) {
		t.Parallel()

		html := `<a class="nav main" data-x='1' href="http://example.com/a#frag">x</a>`
		got := Extract(html, WithScanMode(ScanTokenizer))
		want := []string{"http://example.com/a"}
		if !slices.Equal(got, want) {
			t.Errorf("Extract() = %q, want %q", got, want)
		}
	})

	t.Run("single quoted href", func(t *testing.T) {
		t.Parallel()

		html := `<a href='http://example.com/b/'>b</a>`
		got := Extract(html, WithScanMode(ScanTokenizer))
		want := []string{"http://example.com/b"}
		if !slices.Equal(got, want) {
			t.Errorf("Extract() = %q, want %q", got, want)
		}
	})

	t.Run("rejects values outside the grammar", func(t *testing.T) {
		t.Parallel()

		html := `<a href="javascript:void(0)">js</a><a name="x">n</a><link href="http://example.com/style.css">`
		got := Extract(html, WithScanMode(ScanTokenizer))
		if len(got) != 0 {
			t.Errorf("expected no links, got %q", got)
		}
	})

	t.Run("agrees with pattern on simple markup", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<a href="http://example.com/page">p</a>
			<a href="http://a.com/p#top">t</a>
			<a href="http://a.com/p#bottom">b</a>
			<a href="/local/file.txt">f</a>
		</body></html>`
		pattern := Extract(html)
		tokens := Extract(html, WithScanMode(ScanTokenizer))
		if !slices.Equal(pattern, tokens) {
			t.Errorf("pattern %q and tokenizer %q disagree", pattern, tokens)
		}
	})
}

// sampleDocument mixes matching, duplicate and malformed anchors.
const sampleDocument = `<!DOCTYPE html><html><head><title>t</title></head><body>
<a href="http://example.com/">home</a>
<a href="http://example.com/a/b?x=1&y=two#s=1.2">ab</a>
<a href="http://example.com/a/b?x=1&y=two">ab</a>
<a id="n1" href="https://docs.example.org/guide/index.html" rel="next">guide</a>
<a href="/relative/path/">rel</a>
<a href="/relative/path">rel</a>
<a href="broken">broken</a>
<a href = "http://sub.example.co.uk/x#y">x</a>
</body></html>`

// TestExtractProperties checks the invariants that hold for every input.
func TestExtractProperties(t *testing.T) {
	t.Parallel()

	for _, mode := range []DedupMode{DedupTrailingSlash, DedupExact} {
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()

			first := Extract(sampleDocument, WithDedup(mode))
			second := Extract(sampleDocument, WithDedup(mode))

			if !slices.Equal(first, second) {
				t.Errorf("extraction is not idempotent: %q vs %q", first, second)
			}

			seen := make(map[string]bool)
			for _, link := range first {
				if seen[link] {
					t.Errorf("duplicate entry %q", link)
				}
				seen[link] = true

				if strings.Contains(link, "#") {
					t.Errorf("entry %q still has a fragment", link)
				}
				if !IsLinkTarget(link) {
					t.Errorf("entry %q does not satisfy the href grammar", link)
				}

				refed := Extract(`<a href="`+link+`">x</a>`, WithDedup(mode))
				if len(refed) != 1 || refed[0] != link {
					t.Errorf("round trip of %q gave %q", link, refed)
				}
			}
		})
	}

	t.Run("expected links", func(t *testing.T) {
		t.Parallel()

		want := []string{
			"http://example.com",
			"http://example.com/a/b?x=1&y=two",
			"https://docs.example.org/guide/index.html",
			"/relative/path",
			"http://sub.example.co.uk/x",
		}
		if got := Extract(sampleDocument); !slices.Equal(got, want) {
			t.Errorf("Extract() = %q, want %q", got, want)
		}
	})
}

func TestIsLinkTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"http://example.com/page", true},
		{"/a/b.html", true},
		{"http://example.com/?q=1", true},
		{"", false},
		{"http://example.com/page#frag", false},
		{"ftp://example.com/", false},
		{"page.html", false},
	}

	for _, tt := range tests {
		if got := IsLinkTarget(tt.in); got != tt.want {
			t.Errorf("IsLinkTarget(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseModes(t *testing.T) {
	t.Parallel()

	if m, err := ParseDedupMode("EXACT"); err != nil || m != DedupExact {
		t.Errorf("ParseDedupMode(EXACT) = %q, %v", m, err)
	}
	if _, err := ParseDedupMode("fuzzy"); err == nil {
		t.Error("expected error for unknown dedup mode")
	}
	if m, err := ParseScanMode("tokenizer"); err != nil || m != ScanTokenizer {
		t.Errorf("ParseScanMode(tokenizer) = %q, %v", m, err)
	}
	if _, err := ParseScanMode("dom"); err == nil {
		t.Error("expected error for unknown scan mode")
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	if got := Normalize("http://a.com/x/", DedupTrailingSlash); got != "http://a.com/x" {
		t.Errorf("got %q", got)
	}
	if got := Normalize("http://a.com/x//", DedupTrailingSlash); got != "http://a.com/x/" {
		t.Errorf("only one slash should be removed, got %q", got)
	}
	if got := Normalize("http://a.com/x/", DedupExact); got != "http://a.com/x/" {
		t.Errorf("got %q", got)
	}
}
