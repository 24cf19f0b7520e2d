package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
)

func TestProcess(t *testing.T) {
	ctx := context.Background()

	cfg, err := process(ctx, envconfig.MapLookuper(map[string]string{
		"DAO_ADDRESS": "0x68b1d87f95878fe05b998f19b66f4baba5de1aed",
		"API_KEY":     "secret",
		"DB_HOST":     "db.internal",
	}))
	require.NoError(t, err)

	require.Equal(t, "Collector DAO", cfg.DAOName)
	require.Equal(t, "secret", cfg.APIKEY)
	require.True(t, cfg.UsePostgres())
	require.Equal(t, "db.internal", cfg.DBReaderHost)

	_, err = process(ctx, envconfig.MapLookuper(map[string]string{
		"API_KEY": "secret",
	}))
	require.Error(t, err)
}

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "dao.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDeploymentDefaults(t *testing.T) {
	d, err := LoadDeployment(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	p, err := d.DAOParams()
	require.NoError(t, err)
	require.Equal(t, dao.DefaultParams(), p)

	cs, err := d.CollectibleContracts()
	require.NoError(t, err)
	require.Empty(t, cs)
}

func TestLoadDeployment(t *testing.T) {
	path := writeFile(t, `
params:
  minMembershipFee: "0.5"
  votingDelay: 1m
  votingPeriod: 24h
  quorum: "2"
collectibles:
  - address: "0x3aa5ebb10dc797cac828524e59a333d0a371443c"
    price: "0.01"
  - address: "0x1000000000000000000000000000000000000001"
`)

	d, err := LoadDeployment(path)
	require.NoError(t, err)

	p, err := d.DAOParams()
	require.NoError(t, err)

	require.Equal(t, "500000000000000000", p.MinMembershipFee.String())
	require.Equal(t, dao.Ether(1), p.MintAmount)
	require.Equal(t, dao.Ether(10), p.TreasuryAllotment)
	require.Equal(t, time.Minute, p.VotingDelay)
	require.Equal(t, 24*time.Hour, p.VotingPeriod)
	require.Equal(t, dao.Ether(2), p.Quorum)

	cs, err := d.CollectibleContracts()
	require.NoError(t, err)
	require.Len(t, cs, 2)
	require.Equal(t, common.HexToAddress("0x3aa5ebb10dc797cac828524e59a333d0a371443c"), cs[0].Address)
	require.Equal(t, "10000000000000000", cs[0].Price.String())
	require.Equal(t, 0, cs[1].Price.Sign())
}

func TestDeploymentErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad amount", "params:\n  mintAmount: lots\n"},
		{"zero mint", "params:\n  mintAmount: \"0\"\n"},
		{"bad duration", "params:\n  votingPeriod: forever\n"},
		{"negative duration", "params:\n  votingDelay: -1s\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := LoadDeployment(writeFile(t, tc.content))
			require.NoError(t, err)

			_, err = d.DAOParams()
			require.Error(t, err)
		})
	}

	d, err := LoadDeployment(writeFile(t, "collectibles:\n  - address: nope\n"))
	require.NoError(t, err)
	_, err = d.CollectibleContracts()
	require.ErrorIs(t, err, dao.ErrInvalidAddress)

	_, err = LoadDeployment(writeFile(t, "params: [\n"))
	require.Error(t, err)

	// a directory is not silently treated as a missing file
	_, err = LoadDeployment(t.TempDir())
	require.Error(t, err)
}
