package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	netguardian "github.com/zero-day-ai/netguardian"
	"github.com/zero-day-ai/netguardian/client"
)

// Summary renders the outcome for display: risk label, encryption, SSID and
// either the score or the backend error.
func (o Outcome) Summary() string {
	var b strings.Builder

	fmt.Fprintln(&b, o.Risk.Display())
	fmt.Fprintf(&b, "Encryption: %s\n", o.Description)
	fmt.Fprintf(&b, "SSID: %s\n", o.Observation.SSIDOr("N/A"))
	if o.PermissionDenied {
		fmt.Fprintln(&b, "Location permission denied: network details may be missing")
	}
	b.WriteString(o.Status)

	if o.Score != nil {
		for _, advice := range o.Score.Advice {
			fmt.Fprintf(&b, "\n- %s", advice)
		}
	}
	return b.String()
}

func scoreStatus(score *client.ScoreResult) string {
	s := fmt.Sprintf("Score: %g (%s)", score.Score, score.RiskLabel)
	if len(score.TopReasons) == 0 {
		return s
	}

	codes := make([]string, 0, len(score.TopReasons))
	for _, r := range score.TopReasons {
		codes = append(codes, r.Code)
	}
	return s + "; reasons: " + strings.Join(codes, ", ")
}

// statusFor turns an error into the line shown in place of a score.
func statusFor(err error) string {
	var rejected *client.RemoteRejectedError
	switch {
	case errors.As(err, &rejected):
		body := strings.TrimSpace(rejected.Body)
		if body == "" {
			return fmt.Sprintf("Backend error: HTTP %d", rejected.StatusCode)
		}
		return fmt.Sprintf("Backend error: HTTP %d: %s", rejected.StatusCode, body)
	case errors.Is(err, client.ErrMalformedResponse):
		return "Backend error: unreadable response"
	case errors.Is(err, context.DeadlineExceeded):
		return "Backend error: scan timed out"
	case errors.Is(err, context.Canceled):
		return "Scan cancelled"
	case errors.Is(err, client.ErrTransport):
		var te *client.TransportError
		if errors.As(err, &te) && te.Err != nil {
			return fmt.Sprintf("Backend unreachable: %v", te.Err)
		}
		return "Backend unreachable"
	case netguardian.KindOf(err) == netguardian.KindValidation:
		return fmt.Sprintf("Scan report invalid: %v", err)
	default:
		return fmt.Sprintf("Backend error: %v", err)
	}
}
