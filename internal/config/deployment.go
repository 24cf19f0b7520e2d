package config

import (
	"fmt"
	"math/big"
	"os"
	"time"

	com "github.com/citizenwallet/dao/internal/common"
	"github.com/citizenwallet/dao/internal/storage"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Deployment describes the constants a DAO is created with and the contracts its proposals can call.
// Amounts are written in ether, durations in go duration syntax.
type Deployment struct {
	Params       ParamsConfig        `yaml:"params"`
	Collectibles []CollectibleConfig `yaml:"collectibles"`
}

type ParamsConfig struct {
	MinMembershipFee  string `yaml:"minMembershipFee"`
	MintAmount        string `yaml:"mintAmount"`
	TreasuryAllotment string `yaml:"treasuryAllotment"`
	VotingDelay       string `yaml:"votingDelay"`
	VotingPeriod      string `yaml:"votingPeriod"`
	Quorum            string `yaml:"quorum"`
}

type CollectibleConfig struct {
	Address string `yaml:"address"`
	Price   string `yaml:"price"`
}

// Collectible is a collectible contract ready to be deployed
type Collectible struct {
	Address common.Address
	Price   *big.Int
}

// LoadDeployment reads the deployment file at path, a missing file yields the default deployment
func LoadDeployment(path string) (*Deployment, error) {
	d := &Deployment{}

	ok, err := storage.FileExists(path)
	if err != nil {
		return nil, fmt.Errorf("error reading deployment file: %w", err)
	}
	if !ok {
		return d, nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading deployment file: %w", err)
	}

	err = yaml.Unmarshal(buf, d)
	if err != nil {
		return nil, fmt.Errorf("error parsing deployment file: %w", err)
	}

	return d, nil
}

// DAOParams overlays the configured values on the default params
func (d *Deployment) DAOParams() (dao.Params, error) {
	p := dao.DefaultParams()
	c := d.Params

	amounts := []struct {
		name string
		raw  string
		dst  **big.Int
	}{
		{"minMembershipFee", c.MinMembershipFee, &p.MinMembershipFee},
		{"mintAmount", c.MintAmount, &p.MintAmount},
		{"treasuryAllotment", c.TreasuryAllotment, &p.TreasuryAllotment},
		{"quorum", c.Quorum, &p.Quorum},
	}

	for _, a := range amounts {
		if a.raw == "" {
			continue
		}

		v, err := com.ParseEther(a.raw)
		if err != nil {
			return dao.Params{}, fmt.Errorf("%s: %w", a.name, err)
		}
		*a.dst = v
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"votingDelay", c.VotingDelay, &p.VotingDelay},
		{"votingPeriod", c.VotingPeriod, &p.VotingPeriod},
	}

	for _, du := range durations {
		if du.raw == "" {
			continue
		}

		v, err := time.ParseDuration(du.raw)
		if err != nil {
			return dao.Params{}, fmt.Errorf("%s: %w", du.name, err)
		}
		if v < 0 {
			return dao.Params{}, fmt.Errorf("%s: negative duration %s", du.name, v)
		}
		*du.dst = v
	}

	if p.MintAmount.Sign() == 0 {
		return dao.Params{}, fmt.Errorf("mintAmount: %w: must be positive", dao.ErrInvalidAmount)
	}

	return p, nil
}

// CollectibleContracts returns the collectibles to deploy, priced in ether
func (d *Deployment) CollectibleContracts() ([]Collectible, error) {
	cs := make([]Collectible, len(d.Collectibles))

	for i, c := range d.Collectibles {
		addr, err := com.ParseAddress(c.Address)
		if err != nil {
			return nil, fmt.Errorf("collectible %d: %w", i, err)
		}

		price := new(big.Int)
		if c.Price != "" {
			price, err = com.ParseEther(c.Price)
			if err != nil {
				return nil, fmt.Errorf("collectible %d: %w", i, err)
			}
		}

		cs[i] = Collectible{Address: addr, Price: price}
	}

	return cs, nil
}
