package snap

import "testing"

func TestAbsolutizeURLs(t *testing.T) {
	t.Parallel()
	const base = "https://cdn.example.com/assets/site.css"
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "relative reference",
			in:   "body { background: url(bg.png); }",
			want: `body { background: url("https://cdn.example.com/assets/bg.png"); }`,
		},
		{
			name: "parent relative reference",
			in:   "body { background: url(../img/bg.png); }",
			want: `body { background: url("https://cdn.example.com/img/bg.png"); }`,
		},
		{
			name: "root relative reference",
			in:   "div { background-image: url(/static/a.svg); }",
			want: `div { background-image: url("https://cdn.example.com/static/a.svg"); }`,
		},
		{
			name: "quoted reference",
			in:   `div { background: url("img/a.png"); }`,
			want: `div { background: url("https://cdn.example.com/assets/img/a.png"); }`,
		},
		{
			name: "single quoted with spaces",
			in:   `div { background: url( 'img/a.png' ); }`,
			want: `div { background: url("https://cdn.example.com/assets/img/a.png"); }`,
		},
		{
			name: "scheme relative",
			in:   "div { background: url(//other.example.com/a.png); }",
			want: `div { background: url("https://other.example.com/a.png"); }`,
		},
		{
			name: "data uri untouched",
			in:   "div { background: url(data:image/png;base64,AAAA); }",
			want: "div { background: url(data:image/png;base64,AAAA); }",
		},
		{
			name: "blob untouched",
			in:   "div { background: url(blob:https://example.com/x); }",
			want: "div { background: url(blob:https://example.com/x); }",
		},
		{
			name: "fragment untouched",
			in:   "use { fill: url(#gradient); }",
			want: "use { fill: url(#gradient); }",
		},
		{
			name: "multiple references",
			in:   "a { background: url(a.png), url(b.png); }",
			want: `a { background: url("https://cdn.example.com/assets/a.png"), url("https://cdn.example.com/assets/b.png"); }`,
		},
		{
			name: "uppercase token",
			in:   "a { background: URL(a.png); }",
			want: `a { background: url("https://cdn.example.com/assets/a.png"); }`,
		},
		{
			name: "no references",
			in:   "a { color: red; }",
			want: "a { color: red; }",
		},
		{
			name: "unterminated token untouched",
			in:   "a { background: url(a.png",
			want: "a { background: url(a.png",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := AbsolutizeURLs(tc.in, base); got != tc.want {
				t.Fatalf("AbsolutizeURLs(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestAbsolutizeURLsIdempotent(t *testing.T) {
	t.Parallel()
	const base = "https://cdn.example.com/assets/site.css"
	inputs := []string{
		"body { background: url(bg.png) no-repeat; }",
		`@font-face { src: url('../fonts/a.woff2') format("woff2"); }`,
		"div { background: url(data:image/gif;base64,R0) }",
	}
	for _, in := range inputs {
		once := AbsolutizeURLs(in, base)
		if twice := AbsolutizeURLs(once, base); twice != once {
			t.Fatalf("rewrite not idempotent for %q:\n first %q\nsecond %q", in, once, twice)
		}
	}
}

func TestAbsolutizeURLsBadBase(t *testing.T) {
	t.Parallel()
	in := "a { background: url(x.png); }"
	if got := AbsolutizeURLs(in, "not a url"); got != in {
		t.Fatalf("expected input unchanged for unusable base, got %q", got)
	}
}
