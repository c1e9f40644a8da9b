package commands

import (
	"context"
	"encoding/json"

	"git.home.luguber.info/inful/grdesk/internal/config"
	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

// StateCmd implements the 'state' command.
type StateCmd struct {
	Key     string `arg:"" optional:"" help:"Print only this slice"`
	Journal string `help:"Journal path (defaults to journal.path from the config)"`
}

func (s *StateCmd) Run(g *Global, root *CLI) error {
	path, err := journalPath(s.Journal, root.Config)
	if err != nil {
		return err
	}
	st, err := offlineStore(context.Background(), path, g.Logger)
	if err != nil {
		return err
	}

	var out any = st.GetState()
	if s.Key != "" {
		v, ok := st.GetState()[store.ModuleKey(s.Key)]
		if !ok {
			return ferrors.NotFoundError("slice not found").WithContext("module_key", s.Key).Build()
		}
		out = v
	}
	enc := json.NewEncoder(g.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// journalPath prefers the flag and falls back to the config file.
func journalPath(flag, configPath string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	if cfg.Journal.Path == "" {
		return "", ferrors.ConfigError("journal is disabled").WithContext("field", "journal.path").Build()
	}
	return cfg.Journal.Path, nil
}
