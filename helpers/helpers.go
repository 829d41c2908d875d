package helpers

import (
	"fmt"
	"image/color"
	"regexp"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/gamut"
)

var ethAddressRe = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

// ShortenAddr shortens an Ethereum address or hash for display
func ShortenAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// IsValidEthAddress checks if a string is a valid Ethereum address
func IsValidEthAddress(s string) bool {
	return ethAddressRe.MatchString(s)
}

// LoadedAt formats the loaded timestamp
func LoadedAt(t time.Time, loading bool) string {
	if loading {
		return "loading…"
	}
	if t.IsZero() {
		return "never"
	}
	return t.Format("15:04:05")
}

// EtherscanAddressURL returns the Sepolia Etherscan page for an address
func EtherscanAddressURL(addr string) string {
	return fmt.Sprintf("https://sepolia.etherscan.io/address/%s", addr)
}

// EtherscanTxURL returns the Sepolia Etherscan page for a transaction
func EtherscanTxURL(hash string) string {
	return fmt.Sprintf("https://sepolia.etherscan.io/tx/%s", hash)
}

// Hyperlink wraps text in an OSC 8 terminal hyperlink
func Hyperlink(url, text string) string {
	return fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", url, text)
}

// FadeString creates a gradient colored string
func FadeString(s string, firstColor string, lastColor string) string {
	blends := gamut.Blends(lipgloss.Color(firstColor), lipgloss.Color(lastColor), len(s))
	return rainbow(lipgloss.NewStyle(), s, blends)
}

func rainbow(baseStyle lipgloss.Style, str string, colors []color.Color) string {
	var result string
	for i, c := range str {
		col, _ := colorful.MakeColor(colors[i%len(colors)])
		result += baseStyle.Foreground(lipgloss.Color(col.Hex())).Render(string(c))
	}
	return result
}

// Max returns the maximum of two integers
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Min returns the minimum of two integers
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
