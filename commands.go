package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Project-Sylos/Harbor/internal/cli"
	"github.com/Project-Sylos/Harbor/internal/dispatch"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/utils"
)

var (
	expires  string
	targetID string
)

func init() {
	rootCmd.AddCommand(shellCmd, lsCmd, mkdirCmd, renameCmd, rmCmd, uploadCmd, policyCmd)

	mkdirCmd.Flags().StringVar(&targetID, "parent", "", "Parent folder id (default: root)")
	uploadCmd.Flags().StringVar(&targetID, "to", "", "Destination folder id (default: root)")
	uploadCmd.Flags().StringVarP(&expires, "expires", "e", "", "Lifetime such as 90m, 12h or 1d (default: server default)")
}

// withSession opens a session, runs fn and reports errFailed when fn does
func withSession(fn func(cmd *cobra.Command, s *session, args []string) bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		if !fn(cmd, s, args) {
			return errFailed
		}
		return nil
	}
}

// enter moves the session to folder before running a folder-relative command
func enter(cmd *cobra.Command, s *session, folder string) bool {
	if folder == "" || types.FolderID(folder) == s.Navigator().Current() {
		return true
	}
	return cli.Execute(cmd.Context(), s, dispatch.Intent{Kind: dispatch.KindNavigate, Folder: types.FolderID(folder)}, nil)
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Browse and manage files interactively",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) bool {
		cli.Run(cmd.Context(), s, os.Stdin)
		return true
	}),
}

var lsCmd = &cobra.Command{
	Use:   "ls [folder-id]",
	Short: "List a folder",
	Args:  cobra.MaximumNArgs(1),
	RunE: withSession(func(cmd *cobra.Command, s *session, args []string) bool {
		in := dispatch.Intent{Kind: dispatch.KindNavigate, Folder: types.Root}
		if len(args) == 1 {
			in.Folder = types.FolderID(args[0])
		}
		if in.Folder == s.Navigator().Current() {
			in = dispatch.Intent{Kind: dispatch.KindRefresh}
		}
		return cli.Execute(cmd.Context(), s, in, nil)
	}),
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <name>",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, s *session, args []string) bool {
		if !enter(cmd, s, targetID) {
			return false
		}
		return cli.Execute(cmd.Context(), s, dispatch.Intent{Kind: dispatch.KindCreateDirectory, Name: args[0]}, nil)
	}),
}

var renameCmd = &cobra.Command{
	Use:   "rename <item-id> <new-name>",
	Short: "Rename a file or directory",
	Args:  cobra.ExactArgs(2),
	RunE: withSession(func(cmd *cobra.Command, s *session, args []string) bool {
		in := dispatch.Intent{Kind: dispatch.KindRename, Item: types.ItemID(args[0]), Name: args[1]}
		return cli.Execute(cmd.Context(), s, in, nil)
	}),
}

var rmCmd = &cobra.Command{
	Use:     "rm <item-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a file or directory",
	Args:    cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, s *session, args []string) bool {
		in := dispatch.Intent{Kind: dispatch.KindDelete, Item: types.ItemID(args[0])}
		return cli.Execute(cmd.Context(), s, in, nil)
	}),
}

var uploadCmd = &cobra.Command{
	Use:     "upload <path>...",
	Aliases: []string{"put"},
	Short:   "Upload files in chunks",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := dispatch.Intent{Kind: dispatch.KindUpload}
		if expires != "" {
			exp, err := cli.ParseExpiration(expires)
			if err != nil {
				return err
			}
			in.Expiration = &exp
		}
		return withSession(func(cmd *cobra.Command, s *session, args []string) bool {
			if !enter(cmd, s, targetID) {
				return false
			}
			return cli.Execute(cmd.Context(), s, in, args)
		})(cmd, args)
	},
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Show the server upload policy",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) bool {
		p, err := s.Policy()
		if err != nil {
			s.term.Error(err)
			return false
		}
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Setting", "Value"})
		table.AppendBulk([][]string{
			{"Max file size", utils.HumanSize(p.MaxFileBytes())},
			{"Chunk size", utils.HumanSize(p.ChunkBytes())},
			{"Default expiration", fmt.Sprintf("%d min", p.DefaultExpirationMinutes)},
			{"Max expiration", fmt.Sprintf("%d min", p.MaxExpirationMinutes)},
		})
		table.Render()
		return true
	}),
}
