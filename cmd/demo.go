package cmd

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccheshirecat/ghostoxide/internal/config"
	"github.com/ccheshirecat/ghostoxide/internal/ghost"
	"github.com/ccheshirecat/ghostoxide/internal/observability"
)

// fingerprintProbe reads back what page scripts would observe.
const fingerprintProbe = `JSON.stringify({
	webdriver: navigator.webdriver,
	platform: navigator.platform,
	userAgent: navigator.userAgent,
	hardwareConcurrency: navigator.hardwareConcurrency,
	deviceMemory: navigator.deviceMemory,
	languages: navigator.languages,
})`

func newDemoCmd() *cobra.Command {
	var (
		url      string
		selector string
		typeText string
		useTypos bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Open a page with a synchronized fingerprint and interact like a human.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			logger := observability.GetLogger()

			profile := buildProfile(cfg.Stealth)
			logger.Info("Built fingerprint profile",
				zap.String("os", string(profile.OS)),
				zap.String("userAgent", profile.UserAgent))

			tab, cancel := newBrowser(cmd.Context(), cfg.Browser, profile)
			defer cancel()

			page := ghost.New(tab, profile, cfg.Humanoid, cfg.Stealth.Verify, logger)

			// The profile has to land before the target document exists.
			if err := page.ApplyProfile(cmd.Context()); err != nil {
				return fmt.Errorf("applying profile: %w", err)
			}

			navTab := tab
			if cfg.Browser.NavigateTimeout > 0 {
				var cancelNav context.CancelFunc
				navTab, cancelNav = context.WithTimeout(tab, cfg.Browser.NavigateTimeout)
				defer cancelNav()
			}
			if err := chromedp.Run(navTab, chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
				return fmt.Errorf("navigating to %s: %w", url, err)
			}

			raw, err := page.EvaluateStealth(cmd.Context(), fingerprintProbe)
			if err != nil {
				return fmt.Errorf("reading fingerprint: %w", err)
			}
			logger.Info("Observed fingerprint", zap.ByteString("fingerprint", raw))

			if err := page.ScrollHuman(cmd.Context(), 600); err != nil {
				return fmt.Errorf("scrolling: %w", err)
			}
			if err := page.MoveMouseHuman(cmd.Context(), 400, 300); err != nil {
				return fmt.Errorf("moving mouse: %w", err)
			}

			if selector != "" {
				var box []float64
				err := chromedp.Run(tab, chromedp.Evaluate(fmt.Sprintf(
					`(() => { const r = document.querySelector(%q).getBoundingClientRect(); return [r.x + r.width/2, r.y + r.height/2]; })()`,
					selector), &box))
				if err != nil || len(box) != 2 {
					return fmt.Errorf("locating %q: %w", selector, err)
				}
				if err := page.ClickHuman(cmd.Context(), box[0], box[1]); err != nil {
					return fmt.Errorf("clicking %q: %w", selector, err)
				}
				if typeText != "" {
					typeFn := page.TypeText
					if useTypos {
						typeFn = page.TypeTextWithTypos
					}
					if err := typeFn(cmd.Context(), typeText); err != nil {
						return fmt.Errorf("typing: %w", err)
					}
				}
			}

			logger.Info("Demo complete",
				zap.Float64("fatigue", page.Engine().FatigueLevel()))
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "https://example.com", "page to open")
	cmd.Flags().StringVar(&selector, "selector", "", "CSS selector to click after loading")
	cmd.Flags().StringVar(&typeText, "type", "", "text to type into the clicked element")
	cmd.Flags().BoolVar(&useTypos, "typos", false, "simulate corrected typos while typing")
	return cmd
}
