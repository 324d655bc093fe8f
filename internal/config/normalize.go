package config

import "strings"

// normalize expands paths and trims user-supplied values so the rest of the
// repository never re-validates them.
func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}

	c.Channel.Handle = strings.TrimSpace(c.Channel.Handle)
	if c.Channel.Handle != "" && !strings.HasPrefix(c.Channel.Handle, "@") {
		c.Channel.Handle = "@" + c.Channel.Handle
	}
	c.Channel.ID = strings.TrimSpace(c.Channel.ID)

	languages := make([]string, 0, len(c.Collection.PreferredLanguages))
	for _, lang := range c.Collection.PreferredLanguages {
		lang = strings.TrimSpace(lang)
		if lang != "" {
			languages = append(languages, lang)
		}
	}
	c.Collection.PreferredLanguages = languages

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
