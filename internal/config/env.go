package config

// ApplyEnv applies SYNAPSE_* variables read through getenv, except for
// flags in changed. Pass os.Getenv outside tests.
func ApplyEnv(cfg *Config, getenv func(string) string, changed map[string]bool) error {
	s := setter{changed: changed}

	s.setString(FlagAPIURL, getenv("SYNAPSE_API_URL"), &cfg.APIURL)
	s.setString(FlagUserAgent, getenv("SYNAPSE_USER_AGENT"), &cfg.UserAgent)
	s.setString(FlagRedisAddr, getenv("SYNAPSE_REDIS_ADDR"), &cfg.RedisAddr)
	s.setString(FlagSessionFile, getenv("SYNAPSE_SESSION_FILE"), &cfg.SessionFile)
	s.setString(FlagLogLevel, getenv("SYNAPSE_LOG_LEVEL"), &cfg.LogLevel)
	s.setString(FlagLogFile, getenv("SYNAPSE_LOG_FILE"), &cfg.LogFile)
	s.setString(FlagMetricsAddr, getenv("SYNAPSE_METRICS_ADDR"), &cfg.MetricsAddr)

	ints := []struct {
		flag, env string
		dst       *int
	}{
		{FlagRedisDB, "SYNAPSE_REDIS_DB", &cfg.RedisDB},
		{FlagPageSize, "SYNAPSE_PAGE_SIZE", &cfg.PageSize},
		{FlagHistoryPageSize, "SYNAPSE_HISTORY_PAGE_SIZE", &cfg.HistoryPageSize},
		{FlagMaxRetries, "SYNAPSE_MAX_RETRIES", &cfg.MaxRetries},
	}
	for _, v := range ints {
		if err := s.setIntFromString(v.flag, getenv(v.env), v.dst); err != nil {
			return err
		}
	}

	if err := s.setBoolFromString(FlagLogPretty, getenv("SYNAPSE_LOG_PRETTY"), &cfg.LogPretty); err != nil {
		return err
	}
	if err := s.setDuration(FlagHTTPTimeout, getenv("SYNAPSE_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration(FlagCacheTTL, getenv("SYNAPSE_CACHE_TTL"), &cfg.CacheTTL); err != nil {
		return err
	}
	return s.setDuration(FlagFetchTimeout, getenv("SYNAPSE_FETCH_TIMEOUT"), &cfg.FetchTimeout)
}
