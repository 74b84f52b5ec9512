package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/netguardian/security"
)

var (
	flagClassifyPlatform string
	flagClassifyCode     string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Normalize a platform security code and show its risk",
	Example: `  netguardian classify --platform android --code 2
  netguardian classify --platform ios --code wpa3Enterprise`,
	Args: cobra.NoArgs,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&flagClassifyPlatform, "platform", "android", "Platform the code comes from (android, ios)")
	classifyCmd.Flags().StringVar(&flagClassifyCode, "code", "", "Native security code (Android int constant or iOS case name)")
	rootCmd.AddCommand(classifyCmd)
}

type classifyInfo struct {
	Platform    security.Platform     `json:"platform"`
	Code        string                `json:"code"`
	Security    security.SecurityType `json:"security"`
	Risk        security.RiskLabel    `json:"risk"`
	Description string                `json:"description"`
}

func classify(platform security.Platform, raw string) classifyInfo {
	raw = strings.TrimSpace(raw)

	var code any = raw
	if raw == "" {
		code = nil
	} else if n, err := strconv.Atoi(raw); err == nil {
		code = n
	}

	st := security.Normalize(platform, code)
	return classifyInfo{
		Platform:    platform,
		Code:        raw,
		Security:    st,
		Risk:        security.RiskLabelOf(st),
		Description: security.Describe(st),
	}
}

func runClassify(cmd *cobra.Command, _ []string) error {
	platform, ok := security.ParsePlatform(flagClassifyPlatform)
	if !ok {
		return fmt.Errorf("unknown platform %q (want android or ios)", flagClassifyPlatform)
	}

	info := classify(platform, flagClassifyCode)
	w := cmd.OutOrStdout()

	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(w, "Security:    %s\n", info.Security)
	fmt.Fprintf(w, "Encryption:  %s\n", info.Description)
	fmt.Fprintf(w, "Risk:        %s\n", info.Risk.Display())
	return nil
}
