package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/detect-field/trackpoint/internal/api"
	"github.com/detect-field/trackpoint/internal/export"
	"github.com/detect-field/trackpoint/internal/health"
	"github.com/detect-field/trackpoint/internal/models"
	"github.com/detect-field/trackpoint/internal/services"
	"github.com/detect-field/trackpoint/internal/session"
	"github.com/detect-field/trackpoint/internal/store"
	"github.com/detect-field/trackpoint/internal/utils"
	"github.com/detect-field/trackpoint/pkg/file"
	"github.com/detect-field/trackpoint/pkg/gps"
	"github.com/detect-field/trackpoint/pkg/mqtt"
	"github.com/detect-field/trackpoint/pkg/prefs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "trackpoint",
		Short: "Field GPS track logger",
		Long: `A headless field agent that records GPS position and heading samples,
infers the transport mode from estimated speed, maintains an annotated
track log and exports it as CSV and KML.`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(replayCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// loadEnvironment loads the config and the sticky operator preferences.
func loadEnvironment(logger zerolog.Logger) (*utils.Config, prefs.PreferencesInterface, *file.FileService, error) {
	fileClient := file.NewFileService()

	config, err := utils.LoadConfig(configPath, fileClient)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	preferences := prefs.NewPreferencesStore(config.Agent.PrefsFile, fileClient)
	if err := preferences.Load(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load operator preferences: %w", err)
	}

	logger.Info().
		Str("transport", preferences.TransportMode()).
		Str("user", preferences.ActiveUser()).
		Msg("Operator preferences loaded")
	return config, preferences, fileClient, nil
}

// buildProvider constructs the position provider named in the config.
func buildProvider(config *utils.Config) (gps.Provider, error) {
	switch config.GPS.Provider {
	case "nmea", "":
		return gps.NewNMEAProvider(config.GPS.DevicePort, config.GPS.BaudRate), nil
	case "google":
		return gps.NewGoogleGeolocationProvider(config.GPS.MapsAPIKey, config.GPS.ModemIndex)
	case "replay":
		return gps.NewReplayProvider(config.GPS.ReplayFile)
	default:
		return nil, fmt.Errorf("unknown GPS provider %q", config.GPS.Provider)
	}
}

// runCmd starts the full agent: tracking, archive, telemetry and status API.
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the tracking agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			config, preferences, fileClient, err := loadEnvironment(logger)
			if err != nil {
				return err
			}

			sess := session.New(preferences.TransportMode(), preferences.ActiveUser(), logger)

			archive, err := store.Open(config.Agent.DatabaseFile, logger)
			if err != nil {
				return fmt.Errorf("failed to open session archive: %w", err)
			}
			defer archive.Close()
			sess.AddListener(store.NewArchiveListener(archive, logger))

			provider, err := buildProvider(config)
			if err != nil {
				return err
			}

			sink := export.NewSink(config.Agent.ExportDir, fileClient, logger)
			exporter := services.NewExportService(config.Agent.ExportPrefix, sess, archive, sink, logger)
			defer exporter.Shutdown()

			tracker := services.NewTrackingService(config.GPS.PollInterval, provider, sess, logger)
			if err := tracker.Start(); err != nil {
				return err
			}
			defer tracker.Stop()

			if config.GPS.AutoStart {
				sess.StartTracking()
			}

			var mqttClient *mqtt.MqttService
			if config.MQTT.Enabled {
				clientID := config.MQTT.ClientID + "-" + uuid.New().String()
				logger.Info().Str("client_id", clientID).Msg("Using MQTT client ID")

				mqttClient = mqtt.NewMqttService(fileClient)
				if err := mqttClient.Initialize(config.MQTT.Broker, clientID, config.MQTT.CACertificate); err != nil {
					return fmt.Errorf("failed to initialize MQTT connection: %w", err)
				}
				defer mqttClient.Disconnect(250)

				telemetry := services.NewTelemetryService(
					config.MQTT.Topic,
					config.MQTT.Interval,
					config.MQTT.QOS,
					sess,
					mqttClient,
					health.NewCollector(logger),
					logger,
				)
				if err := telemetry.Start(); err != nil {
					return err
				}
				defer telemetry.Stop()
			}

			if config.API.Enabled {
				server := api.NewServer(sess, exporter, archive, preferences, logger)
				addr := fmt.Sprintf(":%d", config.API.Port)
				go func() {
					logger.Info().Str("addr", addr).Msg("Status API listening")
					if err := http.ListenAndServe(addr, server.Router()); err != nil {
						logger.Error().Err(err).Msg("Status API server stopped")
					}
				}()
			}

			logger.Info().Str("session_id", sess.ID()).Msg("Agent started")

			stopCh := make(chan os.Signal, 1)
			signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
			<-stopCh

			logger.Info().Msg("Shutting down gracefully...")
			return nil
		},
	}
}

// exportCmd renders an archived session to CSV and KML.
func exportCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an archived session as CSV and KML",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			config, _, fileClient, err := loadEnvironment(logger)
			if err != nil {
				return err
			}

			archive, err := store.Open(config.Agent.DatabaseFile, logger)
			if err != nil {
				return fmt.Errorf("failed to open session archive: %w", err)
			}
			defer archive.Close()

			if sessionID == "" {
				records, err := archive.ListSessions()
				if err != nil {
					return err
				}
				if len(records) == 0 {
					return errors.New("no archived sessions to export")
				}
				sessionID = records[0].ID
			}

			points, err := archive.LoadPoints(sessionID)
			if err != nil {
				return err
			}

			files, err := export.Render(points, config.Agent.ExportPrefix, time.Now())
			if err != nil {
				return err
			}

			sink := export.NewSink(config.Agent.ExportDir, fileClient, logger)
			if err := sink.Write(files); err != nil {
				return err
			}

			fmt.Printf("Exported %s and %s to %s\n", files.CSVName, files.KMLName, config.Agent.ExportDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID to export (defaults to the most recent)")
	return cmd
}

// sessionsCmd lists archived sessions.
func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List archived sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			config, _, _, err := loadEnvironment(logger)
			if err != nil {
				return err
			}

			archive, err := store.Open(config.Agent.DatabaseFile, logger)
			if err != nil {
				return fmt.Errorf("failed to open session archive: %w", err)
			}
			defer archive.Close()

			records, err := archive.ListSessions()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No archived sessions.")
				return nil
			}

			fmt.Printf("%-38s %-20s %-12s %s\n", "ID", "Started", "User", "Points")
			for _, r := range records {
				fmt.Printf("%-38s %-20s %-12s %d\n",
					r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.User, r.PointCount)
			}
			return nil
		},
	}
}

// replayCmd pushes a recorded NMEA log through the full pipeline and exports
// the result.
func replayCmd() *cobra.Command {
	var replayFile string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded NMEA log and export the resulting track",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			config, preferences, fileClient, err := loadEnvironment(logger)
			if err != nil {
				return err
			}
			if replayFile == "" {
				replayFile = config.GPS.ReplayFile
			}

			provider, err := gps.NewReplayProvider(replayFile)
			if err != nil {
				return err
			}

			sess := session.New(preferences.TransportMode(), preferences.ActiveUser(), logger)
			sess.StartTracking()

			for {
				reading, err := provider.CurrentFix()
				if errors.Is(err, gps.ErrReplayDone) {
					break
				}
				if err != nil {
					return err
				}

				if _, err := sess.OnFix(models.Fix{
					Latitude:   reading.Latitude,
					Longitude:  reading.Longitude,
					Timestamp:  reading.Timestamp,
					Heading:    reading.Heading,
					HasHeading: reading.HasHeading,
				}); err != nil {
					logger.Warn().Err(err).Msg("Skipping invalid replay fix")
				}
			}

			files, err := export.Render(sess.Snapshot(), config.Agent.ExportPrefix, time.Now())
			if err != nil {
				return err
			}

			sink := export.NewSink(config.Agent.ExportDir, fileClient, logger)
			if err := sink.Write(files); err != nil {
				return err
			}

			fmt.Printf("Replayed %d points; exported %s and %s\n",
				sess.Status().PointCount, files.CSVName, files.KMLName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&replayFile, "file", "f", "", "NMEA log to replay (defaults to gps.replay_file)")
	return cmd
}
