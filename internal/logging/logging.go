package logging

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup настраивает глобальный logrus: уровень и формат (text или json).
func Setup(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stdout)

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
