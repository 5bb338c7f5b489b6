package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/imkonsowa/paragourmet/config"
	"github.com/imkonsowa/paragourmet/engine"
	"github.com/imkonsowa/paragourmet/imagesearch"
	"github.com/imkonsowa/paragourmet/logger"
	"github.com/imkonsowa/paragourmet/overpass"
	"github.com/imkonsowa/paragourmet/policy"
	"github.com/imkonsowa/paragourmet/scene"
	"github.com/imkonsowa/paragourmet/suggest"
	"github.com/imkonsowa/paragourmet/weather"
)

var configFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "agent",
		Short:         "Turns a user's surroundings into a food suggestion prompt",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultConfigFile, "path to the YAML config file")

	cmd.AddCommand(serveCmd(), promptCmd())

	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(cfg.Log.JSON); err != nil {
		return nil, err
	}

	return cfg, nil
}

func buildEngine(cfg *config.Config) (*scene.Normalizer, *engine.Engine, error) {
	p, err := policy.Load(cfg.Engine.PolicyFile)
	if err != nil {
		return nil, nil, err
	}

	loc, err := cfg.Engine.Location()
	if err != nil {
		return nil, nil, err
	}

	radius := cfg.Engine.DefaultRadius
	if radius <= 0 {
		radius = p.DefaultRadiusM
	}

	return scene.NewNormalizer(radius, loc), engine.NewFromPolicy(p), nil
}

func newOverpass(cfg *config.Config) *overpass.Client {
	return overpass.NewClient(overpass.Options{
		URL:           cfg.Overpass.URL,
		Timeout:       cfg.Overpass.Timeout,
		Retries:       cfg.Overpass.Retries,
		RatePerSecond: cfg.Overpass.RatePerSecond,
		Logger:        logger.Named("overpass"),
	})
}

func newWeather(cfg *config.Config) weather.Provider {
	if !cfg.Weather.Enabled {
		return nil
	}

	return weather.NewOpenMeteo(weather.Options{
		URL:     cfg.Weather.URL,
		Timeout: cfg.Weather.Timeout,
		Retries: cfg.Weather.Retries,
		Logger:  logger.Named("weather"),
	})
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			normalizer, eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}

			deps := HandlerDeps{
				Normalizer: normalizer,
				Engine:     eng,
				Weather:    newWeather(cfg),
				POIs:       newOverpass(cfg),
				Logger:     logger.Named("handler"),
			}

			model, err := suggest.NewModel(cfg.LLM)
			if err != nil {
				logger.Logger.Warnw("suggestions disabled", "error", err)
			} else {
				history, err := suggest.OpenSqliteHistory(cfg.History.Path, suggest.DefaultHistoryLimit)
				if err != nil {
					return err
				}
				defer history.Close()

				deps.Suggester = suggest.NewService(model, suggest.Options{
					Temperature: cfg.LLM.Temperature,
					MaxTokens:   cfg.LLM.MaxTokens,
					History:     history,
					Logger:      logger.Named("suggest"),
				})
			}

			if cfg.ImageSearch.Enabled() {
				images, err := imagesearch.NewGoogle(ctx, cfg.ImageSearch.APIKey, cfg.ImageSearch.EngineID, logger.Named("imagesearch"))
				if err != nil {
					return err
				}
				deps.Images = images
			}

			if cfg.Nats.Enabled {
				nc, err := NewNatsClient(cfg.Nats)
				if err != nil {
					return err
				}
				defer nc.Close()
				deps.Events = nc
			}

			handler, err := NewHandler(deps)
			if err != nil {
				return err
			}

			return NewAgent(cfg.Server, handler, logger.Named("agent")).Run(ctx)
		},
	}
}

type promptFlags struct {
	raw          map[string]*string
	pois         []string
	fetchPOIs    bool
	fetchWeather bool
	debug        bool
}

func promptCmd() *cobra.Command {
	f := promptFlags{raw: map[string]*string{}}

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt for one scene",
		Example: `  agent prompt --lat 37.5665 --lon 126.978 --city Seoul --temp_c 28 --sky "very sunny" --humidity 60 --pois cafe,bus_stop
  agent prompt --lat 37.5665 --lon 126.978 --city Seoul --fetch-weather --fetch-pois --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			normalizer, eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}

			deps := HandlerDeps{Normalizer: normalizer, Engine: eng, Logger: logger.Named("handler")}
			if f.fetchPOIs {
				deps.POIs = newOverpass(cfg)
			}
			if f.fetchWeather {
				deps.Weather = weather.NewOpenMeteo(weather.Options{URL: cfg.Weather.URL, Timeout: cfg.Weather.Timeout, Retries: cfg.Weather.Retries})
			}

			handler, err := NewHandler(deps)
			if err != nil {
				return err
			}

			req := PromptRequest{Raw: scene.Raw{}, Debug: f.debug}
			for k, v := range f.raw {
				if cmd.Flags().Changed(k) {
					req.Raw[k] = *v
				}
			}
			if !f.fetchPOIs {
				req.POIs = append([]string{}, f.pois...)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			_, res, err := handler.Prompt(ctx, req)
			if err != nil {
				return errors.WithHint(err, "see agent prompt --help for the accepted flags")
			}

			if !f.debug {
				_, err = fmt.Fprint(cmd.OutOrStdout(), res.Prompt)
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(NewPromptResponse(res, true))
		},
	}

	for _, k := range sceneKeys {
		f.raw[k] = cmd.Flags().String(k, "", "scene "+k)
	}
	cmd.Flags().StringSliceVar(&f.pois, "pois", nil, "comma separated POI tags")
	cmd.Flags().BoolVar(&f.fetchPOIs, "fetch-pois", false, "look POIs up on Overpass instead of --pois")
	cmd.Flags().BoolVar(&f.fetchWeather, "fetch-weather", false, "fetch weather when no weather flag is given")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "print surroundings, intents and the rule trace as JSON")

	return cmd
}
