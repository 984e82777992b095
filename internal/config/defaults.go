package config

const (
	defaultContentRoot  = "content"
	defaultTemplatesDir = "templates"
	defaultPublicDir    = "public"
	defaultOutputDir    = "output"
	defaultPreviewPort  = 4000
	defaultDebounce     = "300ms"
	defaultInterval     = "5m"
	defaultHistoryPath  = ".sitetree/history.db"
	defaultNotifySubj   = "sitetree.published"
	defaultGitBranch    = "main"
	defaultCheckoutDir  = ".sitetree/checkout"
)

func applyDefaults(cfg *Config) {
	if cfg.Content.Root == "" && cfg.Content.Git == nil {
		cfg.Content.Root = defaultContentRoot
	}
	if g := cfg.Content.Git; g != nil {
		if g.Branch == "" {
			g.Branch = defaultGitBranch
		}
		if g.CheckoutDir == "" {
			g.CheckoutDir = defaultCheckoutDir
		}
		if g.Auth != nil && g.Auth.Type == "" {
			g.Auth.Type = AuthTypeNone
		}
	}
	if cfg.Templates.Dir == "" {
		cfg.Templates.Dir = defaultTemplatesDir
	}
	if cfg.Public.Dir == "" {
		cfg.Public.Dir = defaultPublicDir
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
	}
	if cfg.Preview.Port == 0 {
		cfg.Preview.Port = defaultPreviewPort
	}
	if cfg.Preview.Debounce == "" {
		cfg.Preview.Debounce = defaultDebounce
	}
	if cfg.Preview.Interval == "" {
		cfg.Preview.Interval = defaultInterval
	}
	if cfg.History.Path == "" {
		cfg.History.Path = defaultHistoryPath
	}
	if cfg.Notify.URL != "" && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = defaultNotifySubj
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
}
