package main

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"poser-sync/internal/collab"
	"poser-sync/internal/wire"
)

func newWireCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wire",
		Short: "Inspect the chat payload format",
	}

	decodeCmd := &cobra.Command{
		Use:     "decode <payload>",
		Short:   "Decode one poser message",
		Args:    cobra.ExactArgs(1),
		Example: `  poser wire decode '#POSER,PERM,,3'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			msg, err := wire.Parse(args[0])
			if err != nil {
				return err
			}
			subject := "(sender)"
			if msg.Subject != uuid.Nil {
				subject = msg.Subject.String()
			}
			fmt.Fprintf(out, "kind: %s\nsubject: %s\n", msg.Kind, subject)

			switch msg.Kind {
			case wire.KindPerm:
				n, ok := wire.DecodePerm(msg)
				if !ok {
					return fmt.Errorf("bad permission token")
				}
				fmt.Fprintf(out, "state: %s\n", collab.Permission(n))
			case wire.KindBody:
				tokens, skipped := wire.DecodeBody(msg)
				for _, t := range tokens {
					fmt.Fprintf(out, "joint %d flags=%d rot=%.3f pos=%.3f scale=%.3f\n",
						t.Number, t.Flags, t.Rotation, t.Position, t.Scale)
				}
				fmt.Fprintf(out, "skipped: %d\n", skipped)
			case wire.KindPoses:
				tuples, skipped := wire.DecodePoses(msg)
				for _, p := range tuples {
					fmt.Fprintf(out, "anim %s t=%.3f order=%d joints=%v\n",
						p.AssetID, p.PlayHead, p.CaptureOrder, p.Joints)
				}
				fmt.Fprintf(out, "skipped: %d\n", skipped)
			case wire.KindStop:
				if len(msg.Tokens) > 0 {
					fmt.Fprintf(out, "note: %s\n", msg.Tokens[0])
				}
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:     "list <joint>...",
		Short:   "Encode joint numbers with the compact list codec",
		Args:    cobra.MinimumNArgs(1),
		Example: `  poser wire list 3 64 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			nums := make([]int, len(args))
			for i, a := range args {
				n, err := strconv.Atoi(a)
				if err != nil || n < 0 || n > wire.MaxListValue {
					return fmt.Errorf("joint number %q out of range 0..%d", a, wire.MaxListValue)
				}
				nums[i] = n
			}
			fmt.Fprintln(cmd.OutOrStdout(), wire.EncodeJointList(nums))
			return nil
		},
	}

	cmd.AddCommand(decodeCmd, listCmd)
	return cmd
}
