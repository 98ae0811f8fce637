package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ExpertVagabond/purplesquirrel-media-app/adapters/credentials"
	"github.com/ExpertVagabond/purplesquirrel-media-app/adapters/signer"
	"github.com/ExpertVagabond/purplesquirrel-media-app/client"
	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
)

var (
	apiURL  string
	keyFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "psm",
		Short: "Purple Squirrel Media client",
		Long:  `Command-line client for the Purple Squirrel Media platform: wallet sign-in, video upload and catalog browsing.`,
	}

	home, _ := os.UserHomeDir()
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:3000/v1", "API base URL")
	rootCmd.PersistentFlags().StringVar(&keyFile, "keyfile", filepath.Join(home, ".psm", "wallet.key"), "Wallet key file")

	rootCmd.AddCommand(signinCmd())
	rootCmd.AddCommand(signoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(uploadCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(videosCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// buildSession wires the client core the way the mobile app would.
func buildSession() (*client.AuthSession, *client.REST, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, err
	}

	wallet, err := loadOrCreateWallet(keyFile)
	if err != nil {
		return nil, nil, err
	}

	api := client.NewREST(apiURL)
	creds := credentials.NewFileStore(credentials.DefaultPath())
	return client.NewAuthSession(api, wallet, creds, logger), api, nil
}

// loadOrCreateWallet reads a base58 ed25519 seed, generating one on first use.
func loadOrCreateWallet(path string) (*signer.SolanaSigner, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		seed, err := base58.Decode(string(data))
		if err != nil || len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("invalid wallet key file %s", path)
		}
		return signer.NewSolanaSigner(ed25519.NewKeyFromSeed(seed)), nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read wallet key: %w", err)
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create wallet dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(base58.Encode(key.Seed())), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write wallet key: %w", err)
	}
	fmt.Printf("Generated new wallet at %s\n", path)
	return signer.NewSolanaSigner(key), nil
}

func signinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signin",
		Short: "Sign in with the local wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := buildSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			if err := session.SignIn(ctx); err != nil {
				return err
			}
			state := session.State()
			fmt.Printf("Signed in as %s (%s)\n", state.User.Username, state.User.WalletAddress)
			return nil
		},
	}
}

func signoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := buildSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := session.Restore(ctx); err != nil {
				return err
			}
			if err := session.SignOut(ctx); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := buildSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := session.Restore(ctx); err != nil {
				return err
			}
			state := session.State()
			if !state.Authenticated {
				fmt.Println("Not signed in")
				return nil
			}
			fmt.Printf("%s (%s)\n", state.User.Username, state.User.WalletAddress)
			return nil
		},
	}
}

func uploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a video and wait for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")

			session, api, err := buildSession()
			if err != nil {
				return err
			}
			ctx := context.Background()

			if err := session.Restore(ctx); err != nil {
				return err
			}
			if !session.State().Authenticated {
				return fmt.Errorf("not signed in, run `psm signin` first")
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer file.Close()

			logger, _ := zap.NewDevelopment()
			uploader := client.NewUploader(api, logger, 0)
			err = uploader.Begin(ctx, file, filepath.Base(args[0]), "video/mp4", core.VideoMeta{
				Title:       title,
				Description: description,
			})
			if err != nil {
				return err
			}

			job := uploader.State()
			fmt.Printf("Uploaded, processing video %s...\n", job.VideoID)
			for {
				job = uploader.State()
				if job.Stage.Terminal() {
					break
				}
				time.Sleep(time.Second)
			}
			if job.Stage == core.StageFailed {
				return fmt.Errorf("upload failed: %s", job.Err)
			}
			fmt.Printf("Video %s is ready\n", job.VideoID)
			return nil
		},
	}
	cmd.Flags().String("title", "", "Video title (required)")
	cmd.Flags().String("description", "", "Video description")
	cmd.MarkFlagRequired("title")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <videoId>",
		Short: "Show the processing status of an upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, err := buildSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			status, err := api.UploadStatus(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s (%d%%)\n", status.VideoID, status.Status, status.Progress)
			return nil
		},
	}
}

func videosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "videos",
		Short: "List the public catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, err := buildSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			page, err := api.ListVideos(ctx, 1, 20)
			if err != nil {
				return err
			}
			for _, v := range page.Data {
				fmt.Printf("%s  %-40s  %s\n", v.ID, v.Title, v.Creator.Username)
			}
			fmt.Printf("%d videos total\n", page.Pagination.Total)
			return nil
		},
	}
}
