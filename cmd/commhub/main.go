// commhub is the terminal client for the school ERP communication hub:
// login, group directory, live chat, and the admin seed command.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pushkargithub0611/comm-module-goa/internal/api"
	"github.com/pushkargithub0611/comm-module-goa/internal/config"
	"github.com/pushkargithub0611/comm-module-goa/internal/demo"
	"github.com/pushkargithub0611/comm-module-goa/internal/log"
	"github.com/pushkargithub0611/comm-module-goa/internal/session"
)

type app struct {
	cfg     config.Config
	log     *zerolog.Logger
	session *session.Store
	api     *api.Client
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "commhub:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string

	root := &cobra.Command{
		Use:           "commhub",
		Short:         "Terminal client for the school communication hub",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(configPath)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newGroupsCmd(a),
		newUsersCmd(a),
		newChatCmd(a),
		newSeedAdminCmd(a),
	)
	return root
}

// init loads configuration, opens the persisted session, and builds the API
// client with the stored bearer token when one is still live.
func (a *app) init(configPath string) error {
	bootstrap := log.New("info")
	cfg, path, err := config.Load(bootstrap, configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	a.cfg = cfg
	a.log = log.New(cfg.LogLevel)

	store, err := session.Open(cfg.SessionPath)
	if err != nil {
		return err
	}
	a.session = store

	var fallback *demo.Dataset
	if cfg.DemoFallback {
		fallback = demo.NewDataset()
	}

	a.api = api.NewClient(api.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  a.log,
		Demo:    fallback,
		OnUnauthorized: func() {
			if err := store.Clear(); err != nil {
				a.log.Warn().Err(err).Msg("failed to clear session")
			}
		},
	})

	token, _, ok, err := store.Load()
	if err != nil {
		return err
	}
	if ok {
		if session.TokenExpired(token) {
			a.log.Info().Msg("stored session expired, log in again")
			_ = store.Clear()
		} else {
			a.api.SetToken(token)
		}
	}
	return nil
}

func (a *app) close() {
	if a.session != nil {
		_ = a.session.Close()
	}
}

// currentUser returns the persisted account, erroring when nobody is logged in.
func (a *app) currentUser() (string, error) {
	_, user, ok, err := a.session.Load()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("not logged in, run `commhub login` first")
	}
	return user.ID, nil
}
