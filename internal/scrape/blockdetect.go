package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot block detected.
type BlockType string

const (
	BlockNone        BlockType = ""
	BlockCloudflare  BlockType = "cloudflare"
	BlockCaptcha     BlockType = "captcha"
	BlockWAF         BlockType = "waf"
	BlockRateLimited BlockType = "rate_limited"
	BlockJSShell     BlockType = "js_shell"
)

// challengeMarkers are interstitial phrases from the challenge pages small
// business sites sit behind (Cloudflare and the WAFs bundled by shared
// hosts). All lowercase; bodies are lowered before matching.
var challengeMarkers = map[BlockType][]string{
	BlockCloudflare: {
		"checking your browser",
		"just a moment...",
		"attention required! | cloudflare",
		"cf-browser-verification",
		"cf_chl_opt",
	},
	BlockCaptcha: {
		"recaptcha",
		"hcaptcha",
		"verify you are human",
		"captcha",
	},
	BlockWAF: {
		"generated by wordfence",
		"sucuri website firewall",
		"powered by imperva",
		"incapsula incident id",
		"ddos-guard",
		"request unsuccessful. incapsula",
	},
}

// jsShellBodyMax bounds how large a body can be and still count as a
// client-side-rendered shell. Builder sites (Wix, Squarespace) render real
// markup server-side, so only near-empty documents qualify.
const jsShellBodyMax = 2000

// DetectBlock checks an HTTP response for signs of anti-bot protection so
// the chain can escalate to a rendering fetcher instead of scoring an
// interstitial as page content.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true, BlockRateLimited
	}

	// Cloudflare fronting: challenge statuses with cf-* headers.
	if resp.StatusCode == 403 || resp.StatusCode == 503 {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-mitigated") != "" {
			return true, BlockCloudflare
		}
		if strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))

	for _, kind := range []BlockType{BlockCloudflare, BlockCaptcha, BlockWAF} {
		for _, marker := range challengeMarkers[kind] {
			if strings.Contains(lower, marker) {
				return true, kind
			}
		}
	}

	if len(body) < jsShellBodyMax {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, `meta http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
