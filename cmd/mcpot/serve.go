package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gstoney/mcpot"
	"github.com/gstoney/mcpot/api"
	"github.com/gstoney/mcpot/logging"
	"github.com/gstoney/mcpot/packet"
	"github.com/gstoney/mcpot/sensor"
	"github.com/gstoney/mcpot/sink"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logFile, err := logging.Init(cfg.Log.Logging(), os.Stderr)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id := sensor.Identify(ctx, sensor.Options{Name: cfg.Sensor.Name, AWS: cfg.Sensor.AWS})
	log.Info().
		Str("version", Version).
		Str("sensor", id.Name).
		Str("hostname", id.Hostname).
		Str("platform", id.Platform).
		Str("kernel", id.Kernel).
		Str("instance_id", id.InstanceID).
		Str("region", id.Region).
		Msg("starting mcpot")

	formats := cfg.FormatList()
	sinks, err := sink.Open(formats, sink.Options{
		FileName:      cfg.FileName,
		OutputDir:     cfg.OutputDir,
		BeatsEndpoint: cfg.Beats.Endpoint,
		MQTT: sink.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open sinks: %w", err)
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close sinks")
		}
	}()

	var recent *sink.Memory
	if cfg.API.Addr != "" {
		recent = sink.NewMemory(cfg.API.Recent)
		sinks.Add(recent)
	}
	log.Info().Strs("formats", formats).Str("output_dir", cfg.OutputDir).Msg("chosen formats")

	l, err := mcpot.Listen(cfg.Port)
	switch {
	case errors.Is(err, mcpot.ErrAddrInUse):
		return fmt.Errorf("%w: stop the other process or choose another --port", err)
	case errors.Is(err, mcpot.ErrPermissionDenied):
		return fmt.Errorf("%w: ports below 1024 need elevated privileges, choose another --port", err)
	case err != nil:
		return err
	}

	srv := mcpot.NewServer(mcpot.ServerConfig{
		Status: packet.StatusConfig{
			MOTD:          cfg.MOTD,
			MaxPlayers:    cfg.MaxPlayers,
			OnlinePlayers: cfg.OnlinePlayers,
		},
		MaxPacketLen: cfg.MaxPacketLen,
		Sensor:       id.Name,
	}, sinks)

	var wg sync.WaitGroup
	if recent != nil {
		al, err := net.Listen("tcp", cfg.API.Addr)
		if err != nil {
			l.Close()
			return fmt.Errorf("failed to start API: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := api.NewServer(recent, id).Serve(ctx, al); err != nil {
				log.Error().Err(err).Msg("API server stopped")
				stop()
			}
		}()
	}

	err = srv.Serve(ctx, l)
	stop()
	wg.Wait()
	if err != nil {
		return err
	}
	log.Info().Msg("shut down")
	return nil
}
