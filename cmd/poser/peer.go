package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"poser-sync/internal/anim"
	"poser-sync/internal/animstate"
	"poser-sync/internal/collab"
	"poser-sync/internal/posestore"
	"poser-sync/internal/poser"
	"poser-sync/internal/posing"
	"poser-sync/internal/skeleton"
	"poser-sync/internal/transport"
)

const frameInterval = 50 * time.Millisecond

// sceneRigs creates a rig the first time any character is seen.
type sceneRigs struct {
	mu   sync.Mutex
	cat  *skeleton.Catalog
	rigs map[uuid.UUID]*skeleton.Rig
}

func newSceneRigs(cat *skeleton.Catalog) *sceneRigs {
	return &sceneRigs{cat: cat, rigs: make(map[uuid.UUID]*skeleton.Rig)}
}

func (s *sceneRigs) Rig(id uuid.UUID) (*skeleton.Rig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rigs[id]; ok {
		return r, true
	}
	r := skeleton.NewRig(id, s.cat)
	s.rigs[id] = r
	return r, true
}

func newPeerCommand(opts *rootOptions) *cobra.Command {
	var (
		id       string
		relayURL string
		ask      []string
		letPose  bool
		pose     string
	)

	cmd := &cobra.Command{
		Use:   "peer",
		Short: "Join the relay as a character and sync poses with collaborators",
		Args:  cobra.NoArgs,
		Example: `  poser peer --id 2b0f7e0e-8d4c-4d0b-9e55-08f6c1d0b3a1 --ask 6f1c0e52-7b9e-4b8e-9a57-2a1d4f9f0c11
  poser peer --pose wave --let-pose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			if relayURL != "" {
				cfg.RelayURL = relayURL
			}
			if id != "" {
				cfg.CharacterID = id
			}
			if cfg.RelayURL == "" {
				return errors.New("no relay: use --relay or POSER_RELAY_URL")
			}

			self := uuid.New()
			if cfg.CharacterID != "" {
				if self, err = uuid.Parse(cfg.CharacterID); err != nil {
					return fmt.Errorf("character id: %w", err)
				}
			}
			peers := make([]uuid.UUID, 0, len(ask))
			for _, a := range ask {
				p, err := uuid.Parse(a)
				if err != nil {
					return fmt.Errorf("peer %q: %w", a, err)
				}
				peers = append(peers, p)
			}

			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			rigs := newSceneRigs(cat)
			reg := posing.NewRegistry(posing.Options{Logger: logger})
			clips := anim.NewCache(anim.BuildIndex(cfg.AnimationDir), logger)
			snaps := animstate.NewStore(reg, nil, clips, nil, logger)
			p := poser.New(reg, snaps, poser.Options{Rigs: rigs, Logger: logger})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := transport.Dial(ctx, cfg.RelayURL, self, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			syncer := collab.New(client, client, p, collab.Options{
				Self:             self,
				DebounceWindow:   cfg.DebounceWindow.Duration,
				SendInterval:     cfg.SendInterval.Duration,
				RetryInterval:    cfg.RetryInterval.Duration,
				RetryLimit:       cfg.RetryLimit,
				PresenceInterval: cfg.PresenceInterval.Duration,
				Logger:           logger,
			})
			p.OnChange(syncer.NotifyChange)

			selfRig, _ := rigs.Rig(self)
			p.StartPosing(selfRig)
			if pose != "" {
				if err := restorePose(ctx, cfg.DatabasePath, pose, p, self); err != nil {
					return err
				}
			}
			for _, peer := range peers {
				syncer.Assert(ctx, peer, collab.PermIAskedThem)
			}

			// The frame loop runs on the synchronizer goroutine so joint state
			// has a single writer.
			go func() {
				ticker := time.NewTicker(frameInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						_ = syncer.Do(ctx, func() {
							reg.Update(frameInterval)
							if !letPose {
								return
							}
							for peer, link := range syncer.Links() {
								if link.State == collab.PermGranted || link.State == collab.PermIPoseThem {
									syncer.Assert(ctx, peer, collab.PermTheyPoseMe)
								}
							}
						})
					}
				}
			}()

			logger.Info().Str("character", self.String()).Str("relay", cfg.RelayURL).Msg("peer running")
			err = syncer.Run(ctx)

			stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			n := syncer.BroadcastStop(stopCtx)
			logger.Info().Int("notified", n).Msg("peer stopped")

			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Own character id (default: config character_id or random)")
	cmd.Flags().StringVar(&relayURL, "relay", "", "Relay base URL (default: config relay_url)")
	cmd.Flags().StringSliceVar(&ask, "ask", nil, "Ask these characters to collaborate")
	cmd.Flags().BoolVar(&letPose, "let-pose", false, "Let granted collaborators pose this character")
	cmd.Flags().StringVar(&pose, "pose", "", "Restore this saved pose on start")

	return cmd
}

func restorePose(ctx context.Context, dbPath, name string, p *poser.Poser, self uuid.UUID) error {
	store, err := posestore.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	e, err := store.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("pose %s: %w", name, err)
	}
	if !p.Restore(self, e.Record) {
		return fmt.Errorf("pose %s: character is not posed", name)
	}
	return nil
}
