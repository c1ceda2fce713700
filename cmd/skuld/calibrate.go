package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orneryd/skuld/pkg/cloud"
	"github.com/orneryd/skuld/pkg/config"
	"github.com/orneryd/skuld/pkg/logging"
	"github.com/orneryd/skuld/pkg/protocol"
	"github.com/orneryd/skuld/pkg/storage"
)

func runCalibrate(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	inMemory, _ := cmd.Flags().GetBool("in-memory")
	cohortName, _ := cmd.Flags().GetString("cohort")

	cfg := config.LoadFromEnv()
	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	var store storage.Store
	if inMemory {
		store = storage.NewMemoryStore()
	} else {
		badgerStore, err := storage.NewBadgerStore(storage.BadgerOptions{
			DataDir:    dataDir,
			SyncWrites: cfg.Store.SyncWrites,
			Logger:     logging.BadgerAdapter{L: logger},
		})
		if err != nil {
			return err
		}
		store = badgerStore
	}
	defer store.Close()

	engine := cloud.NewEngine(cloud.Options{Store: store, Logger: logger})

	accepted, rejected := 0, 0
	for _, path := range args {
		pkt, err := readUpstream(path)
		if err != nil {
			return err
		}
		if !protocol.ValidateUpstreamPrivacy(pkt) {
			pkt = protocol.SanitizeUpstream(pkt)
			if !protocol.ValidateUpstreamPrivacy(pkt) {
				return fmt.Errorf("%s: %w", path, protocol.ErrPrivacyViolation)
			}
		}
		if engine.ReceiveUpstream(pkt) {
			accepted++
		} else {
			rejected++
		}
	}
	logger.Info("upstream packets folded", "accepted", accepted, "duplicates", rejected)

	down := engine.GenerateDownstreamPacket(protocol.Cohort(cohortName))
	out, err := json.MarshalIndent(down, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func readUpstream(path string) (*protocol.UpstreamPacket, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upstream packet: %w", err)
	}
	var pkt protocol.UpstreamPacket
	if err := json.Unmarshal(data, &pkt); err != nil {
		return nil, fmt.Errorf("%s: decode upstream packet: %w", path, err)
	}
	return &pkt, nil
}
