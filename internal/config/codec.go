package config

import (
	"encoding/json"

	"howett.net/plist"
)

type codec interface {
	marshal(cfg *Config) ([]byte, error)
	unmarshal(data []byte, cfg *Config) error
}

type jsonCodec struct{}

func (jsonCodec) marshal(cfg *Config) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}

func (jsonCodec) unmarshal(data []byte, cfg *Config) error {
	return json.Unmarshal(data, cfg)
}

// plistCodec writes the XML property list format macOS `defaults` reads.
type plistCodec struct{}

func (plistCodec) marshal(cfg *Config) ([]byte, error) {
	return plist.MarshalIndent(cfg, plist.XMLFormat, "\t")
}

func (plistCodec) unmarshal(data []byte, cfg *Config) error {
	_, err := plist.Unmarshal(data, cfg)
	return err
}
