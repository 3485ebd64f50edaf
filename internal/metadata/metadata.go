// Package metadata supplies the display metadata given to newly indexed projects.
// The contract carries no title or description, so projects get a placeholder entry
// chosen deterministically from their key.
package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fundify/indexer/pkg/config"
	"gopkg.in/yaml.v3"
)

// Project categories.
const (
	CategoryMedical        = "Medical"
	CategoryCoding         = "Coding"
	CategoryTechnology     = "Technology"
	CategoryPharmacy       = "Pharmacy"
	CategoryArmy           = "Army"
	CategoryDefence        = "Defence"
	CategoryFarming        = "Farming"
	CategoryFinance        = "Finance"
	CategoryEducation      = "Education"
	CategoryEnvironment    = "Environment"
	CategorySports         = "Sports"
	CategoryArtsAndCulture = "Art & Culture"
	CategoryTravel         = "Travel"
	CategorySocialWork     = "Social Work"
	CategoryMusic          = "Music"
	CategoryBusiness       = "Business"
	CategoryScience        = "Science"
)

// Categories lists every valid category.
var Categories = []string{
	CategoryMedical, CategoryCoding, CategoryTechnology, CategoryPharmacy, CategoryArmy,
	CategoryDefence, CategoryFarming, CategoryFinance, CategoryEducation, CategoryEnvironment,
	CategorySports, CategoryArtsAndCulture, CategoryTravel, CategorySocialWork, CategoryMusic,
	CategoryBusiness, CategoryScience,
}

var ErrEmptyCatalogue = errors.New("metadata catalogue is empty")

// Entry is the display metadata of a project.
type Entry struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
}

type catalogueFile struct {
	Projects []Entry `yaml:"projects"`
}

var builtin = []Entry{
	{
		Title:       "DeFi Staking Platform",
		Description: "A decentralized application where users can stake tokens and earn rewards.",
		Category:    CategoryFinance,
	},
	{
		Title:       "NFT Marketplace",
		Description: "A platform to mint, buy, and sell NFTs with integrated wallet support.",
		Category:    CategoryArtsAndCulture,
	},
	{
		Title:       "AI Chatbot",
		Description: "An AI-powered chatbot that can answer customer queries in real-time.",
		Category:    CategoryTechnology,
	},
	{
		Title:       "Expense Tracker",
		Description: "A mobile app to track daily expenses and generate budget reports.",
		Category:    CategoryFinance,
	},
	{
		Title:       "Cloud File Storage",
		Description: "A secure, scalable cloud storage system with file-sharing features.",
		Category:    CategoryTechnology,
	},
}

// Source picks placeholder metadata for projects.
type Source struct {
	entries []Entry
}

// NewSource returns the built-in catalogue, or the catalogue in cfg.Path when set.
func NewSource(cfg *config.MetadataConfig) (*Source, error) {
	if cfg == nil || cfg.Path == "" {
		return &Source{entries: builtin}, nil
	}

	return LoadFile(cfg.Path)
}

// LoadFile reads a YAML catalogue of the form:
//
//	projects:
//	  - title: Solar Farm
//	    description: Community owned solar panels.
//	    category: Environment
func LoadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse metadata file: %w", err)
	}

	return New(file.Projects)
}

// New creates a source over the given entries.
func New(entries []Entry) (*Source, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyCatalogue
	}

	for i, e := range entries {
		if e.Title == "" {
			return nil, fmt.Errorf("entry %d: title is required", i)
		}
		if e.Category != "" && !slices.Contains(Categories, e.Category) {
			return nil, fmt.Errorf("entry %d: unknown category %q", i, e.Category)
		}
	}

	return &Source{entries: slices.Clone(entries)}, nil
}

// For returns the entry for the project (owner, index). The same key always gets the same entry.
func (s *Source) For(owner common.Address, index uint64) Entry {
	var buf [common.AddressLength + 8]byte
	copy(buf[:], owner.Bytes())
	binary.BigEndian.PutUint64(buf[common.AddressLength:], index)

	h := crypto.Keccak256(buf[:])
	n := binary.BigEndian.Uint64(h[:8])

	return s.entries[n%uint64(len(s.entries))]
}

// Len returns the catalogue size.
func (s *Source) Len() int {
	return len(s.entries)
}
