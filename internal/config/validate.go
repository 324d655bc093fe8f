package config

import "errors"

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateChannel(); err != nil {
		return err
	}
	if err := c.validateCollection(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateChannel() error {
	if c.Channel.Handle == "" && c.Channel.ID == "" {
		return errors.New("channel.handle or channel.id must be set")
	}
	return nil
}

func (c *Config) validateCollection() error {
	if c.Collection.RequestDelaySeconds < 0 {
		return errors.New("collection.request_delay_seconds must not be negative")
	}
	if c.Collection.TranscriptDelayMin < 0 || c.Collection.TranscriptDelayMax < 0 {
		return errors.New("collection transcript delays must not be negative")
	}
	if c.Collection.TranscriptDelayMax < c.Collection.TranscriptDelayMin {
		return errors.New("collection.transcript_delay_max must be >= transcript_delay_min")
	}
	if c.Collection.MaxSearchResults < 1 {
		return errors.New("collection.max_search_results must be at least 1")
	}
	if c.Collection.MaxRetries < 1 {
		return errors.New("collection.max_retries must be at least 1")
	}
	if len(c.Collection.PreferredLanguages) == 0 {
		return errors.New("collection.preferred_languages must not be empty")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return errors.New("logging.format must be console or json")
	}
	return nil
}
