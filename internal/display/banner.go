package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"

	"github.com/hammamikhairi/facecapture/internal/domain"
)

//go:embed banner.txt
var bannerRaw string

// RenderBanner returns the title art and the angle route beneath it,
// both centred for the current terminal.
func RenderBanner() string {
	return renderBanner(termWidth())
}

func renderBanner(width int) string {
	art := strings.Split(strings.TrimRight(bannerRaw, "\n"), "\n")
	artW := 0
	for _, l := range art {
		artW = max(artW, len(l))
	}

	var b strings.Builder
	pad := strings.Repeat(" ", max(0, (width-artW)/2))
	for _, l := range art {
		b.WriteString(pad)
		b.WriteString(BannerStyle.Render(l))
		b.WriteByte('\n')
	}

	route := angleRoute()
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", max(0, (width-len([]rune(route)))/2)))
	b.WriteString(dimStyle.Render(route))
	b.WriteByte('\n')
	return b.String()
}

// angleRoute lists the capture order, e.g. "front → left → ... → down".
func angleRoute() string {
	angles := domain.Angles()
	names := make([]string, len(angles))
	for i, a := range angles {
		names[i] = string(a)
	}
	return strings.Join(names, " → ")
}

func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
