package cli

import (
	"encoding/json"

	"dgcreview/api/internal/gitrepo"

	"github.com/spf13/cobra"
)

func newSyncCmd(flags *globalFlags) *cobra.Command {
	var repoURL, repoDir, branch, path string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy the cards of a content repository branch into storage",
		Long: "sync clones the content repository when needed, resets and checks out the branch, " +
			"and replaces the stored cards with the branch's cards file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.config()
			if repoURL != "" {
				cfg.ContentRepoURL = repoURL
			}
			if repoDir != "" {
				cfg.ContentRepoDir = repoDir
			}
			if branch != "" {
				cfg.ContentRepoBranch = branch
			}
			if path != "" {
				cfg.ContentCardsPath = path
			}
			log := newLogger(cmd, cfg)
			ctx := cmd.Context()

			rt, err := openRuntime(ctx, cfg, log)
			if err != nil {
				return runtimeErr(err)
			}
			defer rt.Close()

			repo := gitrepo.New(cfg.ContentRepoDir, cfg.ContentRepoURL)
			result, err := repo.SyncCards(ctx, rt.store, cfg.ContentRepoBranch, cfg.ContentCardsPath)
			if err != nil {
				log.Error(ctx, "sync failed", "branch", cfg.ContentRepoBranch, "err", err)
				return runtimeErr(err)
			}
			log.Info(ctx, "cards synced", "branch", result.Branch, "commit", result.Commit, "cards", result.Cards)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	f := cmd.Flags()
	f.StringVar(&repoURL, "repo-url", "", "content repository URL (overrides CONTENT_REPO_URL)")
	f.StringVar(&repoDir, "repo-dir", "", "working copy directory (overrides CONTENT_REPO_DIR)")
	f.StringVar(&branch, "branch", "", "branch to sync (overrides CONTENT_REPO_BRANCH)")
	f.StringVar(&path, "path", "", "cards file inside the repository (overrides CONTENT_CARDS_PATH)")
	return cmd
}
