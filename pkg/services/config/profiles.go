package config

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// RedashProfile holds the credentials of one Redash instance.
type RedashProfile struct {
	Name   string
	Host   string
	APIKey string
}

type ProfileRegistry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, name string) (*RedashProfile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

// NewProfileRegistry loads an INI file with one section per Redash instance:
//
//	[ca]
//	host    = https://redash.example.ca
//	api_key = ...
func NewProfileRegistry(path string) (ProfileRegistry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, name string) (*RedashProfile, error) {
	section, err := cr.cfg.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", name)
	}

	host := strings.TrimRight(section.Key("host").String(), "/")
	key := section.Key("api_key").String()
	if host == "" || key == "" {
		return nil, fmt.Errorf("profile %s requires host and api_key", name)
	}

	return &RedashProfile{
		Name:   name,
		Host:   host,
		APIKey: key,
	}, nil
}
