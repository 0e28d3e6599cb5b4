package cmd

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lmic-node/lmic-node-formatter/internal/codec"
	"github.com/lmic-node/lmic-node-formatter/internal/config"
	"github.com/lmic-node/lmic-node-formatter/internal/monitoring"
	"github.com/lmic-node/lmic-node-formatter/internal/uplink"
)

func run(cmd *cobra.Command, args []string) error {
	tasks := []func() error{
		setLogLevel,
		setSyslog,
		printStartMessage,
		setupCodec,
		setupMonitoring,
	}

	for _, t := range tasks {
		if err := t(); err != nil {
			log.Fatal(err)
		}
	}
	defer codec.Stop()

	var r io.Reader = os.Stdin
	if inputFile != "" {
		f, err := os.Open(inputFile)
		if err != nil {
			return errors.Wrap(err, "open input file error")
		}
		defer f.Close()
		r = f
	}

	server := uplink.NewServer(r, os.Stdout)
	if err := server.Start(); err != nil {
		return errors.Wrap(err, "start uplink server error")
	}

	sigChan := make(chan os.Signal, 1)
	exitChan := make(chan struct{})
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-server.Done():
		if err != nil {
			return errors.Wrap(err, "handle uplinks error")
		}
		log.Info("end of input reached")
		return nil
	case s := <-sigChan:
		log.WithField("signal", s).Info("signal received")
	}

	go func() {
		log.Warning("stopping lmic-node-formatter")
		if err := server.Stop(); err != nil {
			log.Fatal(err)
		}
		exitChan <- struct{}{}
	}()
	select {
	case <-exitChan:
	case s := <-sigChan:
		log.WithField("signal", s).Info("signal received, stopping immediately")
	}

	return nil
}

func setLogLevel() error {
	log.SetLevel(log.Level(uint8(config.C.General.LogLevel)))
	return nil
}

func printStartMessage() error {
	log.WithFields(log.Fields{
		"version": config.Version,
		"codec":   config.C.Codec.Default,
	}).Info("starting LMIC-node formatter")
	return nil
}

func setupCodec() error {
	if err := codec.Setup(config.C); err != nil {
		return errors.Wrap(err, "setup codec error")
	}
	return nil
}

func setupMonitoring() error {
	if err := monitoring.Setup(config.C); err != nil {
		return errors.Wrap(err, "setup monitoring error")
	}
	return nil
}
