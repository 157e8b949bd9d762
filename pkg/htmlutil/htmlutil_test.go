package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestGetText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<p> Jane <b>Doe</b>
</p>`))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, " Jane Doe\n", GetText(doc))
}

func TestWhitespace(t *testing.T) {
	require.Equal(t, "MSc Computing / Oxford", CollapseWhitespace("MSc   Computing\n/\tOxford"))
	require.Equal(t, "1234", RemoveWhitespace(" 1 2\n34 "))
	require.Equal(t, "ab c", RemoveNonPrintable("a\u0000b c"))
}
