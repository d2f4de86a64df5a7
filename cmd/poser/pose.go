package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"poser-sync/internal/bvh"
	"poser-sync/internal/config"
	"poser-sync/internal/posestore"
)

// withStore opens the configured pose database for the duration of fn.
func withStore(ctx context.Context, opts *rootOptions, fn func(config.Config, zerolog.Logger, *posestore.Store) error) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	store, err := posestore.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, logger, store)
}

func newPoseCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pose",
		Short: "Manage saved poses",
		Example: `  poser pose import wave.json
  poser pose list
  poser pose bvh --all`,
	}

	cmd.AddCommand(
		newPoseListCommand(opts),
		newPoseShowCommand(opts),
		newPoseImportCommand(opts),
		newPoseExportCommand(opts),
		newPoseDeleteCommand(opts),
		newPoseBVHCommand(opts),
	)
	return cmd
}

func newPoseListCommand(opts *rootOptions) *cobra.Command {
	var character string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved poses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := uuid.Nil
			if character != "" {
				id, err := uuid.Parse(character)
				if err != nil {
					return fmt.Errorf("character: %w", err)
				}
				filter = id
			}
			return withStore(cmd.Context(), opts, func(_ config.Config, _ zerolog.Logger, store *posestore.Store) error {
				sums, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tCHARACTER\tJOINTS\tSNAPSHOTS\tUPDATED")
				for _, s := range sums {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
						s.Name, s.Character, s.Joints, s.Snapshots, s.UpdatedAt.Format("2006-01-02 15:04"))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&character, "character", "", "Only list poses saved for this character")
	return cmd
}

func newPoseShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved pose",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(_ config.Config, _ zerolog.Logger, store *posestore.Store) error {
				e, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (character %s, version %d)\n", e.Name, e.Character, e.Record.Version)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "JOINT\tROTATION\tPOSITION\tSCALE\tFLAGS")
				for _, j := range e.Record.Joints {
					fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%s\n", j.Name, j.Rotation, j.Position, j.Scale, jointFlags(j.Enabled, j.WorldLocked, j.Mirrored, j.BaseZero))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				for _, s := range e.Record.Snapshots {
					fmt.Fprintf(out, "snapshot %s t=%.3f order=%d layer=%d joints=%v\n",
						s.AssetID, s.PlayHead, s.CaptureOrder, s.InLayer, s.Joints)
				}
				return nil
			})
		},
	}
}

func jointFlags(enabled, locked, mirrored, baseZero bool) string {
	var f []string
	if !enabled {
		f = append(f, "disabled")
	}
	if locked {
		f = append(f, "locked")
	}
	if mirrored {
		f = append(f, "mirrored")
	}
	if baseZero {
		f = append(f, "base-zero")
	}
	if len(f) == 0 {
		return "-"
	}
	return strings.Join(f, ",")
}

func newPoseImportCommand(opts *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <file.json>...",
		Short: "Import pose files into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && len(args) > 1 {
				return errors.New("--name needs exactly one file")
			}
			return withStore(cmd.Context(), opts, func(_ config.Config, _ zerolog.Logger, store *posestore.Store) error {
				for _, path := range args {
					e, err := posestore.ReadFile(path)
					if err != nil {
						return err
					}
					if name != "" {
						e.Name = name
					}
					if err := store.Save(cmd.Context(), e.Name, e.Character, e.Record); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", e.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Store under this name instead of the file's")
	return cmd
}

func newPoseExportCommand(opts *rootOptions) *cobra.Command {
	var out string
	var all bool

	cmd := &cobra.Command{
		Use:   "export [name]",
		Short: "Export saved poses as JSON files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("give a pose name or --all")
			}
			return withStore(cmd.Context(), opts, func(cfg config.Config, _ zerolog.Logger, store *posestore.Store) error {
				ctx := cmd.Context()
				if !all {
					e, err := store.Get(ctx, args[0])
					if err != nil {
						return err
					}
					path := out
					if path == "" {
						path = filepath.Join(cfg.ExportDir, jsonName(e.Name))
					}
					if err := posestore.WriteFile(path, e); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), path)
					return nil
				}

				dir := out
				if dir == "" {
					dir = cfg.ExportDir
				}
				sums, err := store.List(ctx, uuid.Nil)
				if err != nil {
					return err
				}
				for _, s := range sums {
					e, err := store.Get(ctx, s.Name)
					if err != nil {
						return err
					}
					if err := posestore.WriteFile(filepath.Join(dir, jsonName(s.Name)), e); err != nil {
						return err
					}
				}
				manifest := filepath.Join(dir, "manifest.json")
				if err := posestore.WriteManifest(manifest, sums, func(s posestore.Summary) string { return jsonName(s.Name) }); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d poses to %s\n", len(sums), dir)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file, or directory with --all (default: config export_dir)")
	cmd.Flags().BoolVar(&all, "all", false, "Export every saved pose and a manifest")
	return cmd
}

func jsonName(name string) string {
	return strings.TrimSuffix(bvh.FileName(name), ".bvh") + ".json"
}

func newPoseDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved pose",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(_ config.Config, _ zerolog.Logger, store *posestore.Store) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newPoseBVHCommand(opts *rootOptions) *cobra.Command {
	var out string
	var all bool

	cmd := &cobra.Command{
		Use:   "bvh [name]...",
		Short: "Export saved poses as BVH",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("give pose names or --all")
			}
			return withStore(cmd.Context(), opts, func(cfg config.Config, logger zerolog.Logger, store *posestore.Store) error {
				ctx := cmd.Context()
				cat, err := loadCatalog(cfg)
				if err != nil {
					return err
				}

				names := args
				if all {
					sums, err := store.List(ctx, uuid.Nil)
					if err != nil {
						return err
					}
					names = names[:0]
					for _, s := range sums {
						names = append(names, s.Name)
					}
				}
				jobs := make([]bvh.Job, 0, len(names))
				for _, n := range names {
					e, err := store.Get(ctx, n)
					if err != nil {
						return fmt.Errorf("pose %s: %w", n, err)
					}
					jobs = append(jobs, bvh.Job{Name: e.Name, Record: e.Record})
				}

				dir := out
				if dir == "" {
					dir = cfg.ExportDir
				}
				failed := 0
				for _, r := range bvh.ExportAll(ctx, cat, dir, jobs, cfg.Workers, logger) {
					if !r.Success {
						failed++
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", r.Name, r.Error)
						continue
					}
					fmt.Fprintln(cmd.OutOrStdout(), r.Path)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d exports failed", failed, len(jobs))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Output directory (default: config export_dir)")
	cmd.Flags().BoolVar(&all, "all", false, "Export every saved pose")
	return cmd
}
