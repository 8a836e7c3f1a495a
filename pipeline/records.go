package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DeploymentsDir holds one record file per chain id under the project root.
const DeploymentsDir = "deployments"

// ContractDeployment is one deployed contract.
type ContractDeployment struct {
	Address     string `json:"address"`
	TxHash      string `json:"txHash,omitempty"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	DeployedAt  string `json:"deployedAt"`
}

// DeploymentRecord is the persisted deployments/<chainId>.json document.
type DeploymentRecord struct {
	ChainID        uint64                        `json:"chainId"`
	ChainName      string                        `json:"chainName"`
	LastDeployedAt string                        `json:"lastDeployedAt"`
	Contracts      map[string]ContractDeployment `json:"contracts"`
}

var chainNames = map[uint64]string{
	1:        "Ethereum Mainnet",
	10:       "Optimism",
	137:      "Polygon",
	8453:     "Base",
	31337:    "Anvil Local",
	84532:    "Base Sepolia",
	11155111: "Sepolia",
}

// ChainName returns a display name for a chain id.
func ChainName(chainID uint64) string {
	if name, ok := chainNames[chainID]; ok {
		return name
	}
	return "Chain " + strconv.FormatUint(chainID, 10)
}

// RecordPath returns the record file for chainID under root.
func RecordPath(root string, chainID uint64) string {
	return filepath.Join(root, DeploymentsDir, strconv.FormatUint(chainID, 10)+".json")
}

// LoadRecord reads the record for chainID. A missing file yields an empty record.
func LoadRecord(root string, chainID uint64) (*DeploymentRecord, error) {
	record := &DeploymentRecord{
		ChainID:   chainID,
		ChainName: ChainName(chainID),
		Contracts: make(map[string]ContractDeployment),
	}

	data, err := os.ReadFile(RecordPath(root, chainID))
	if errors.Is(err, os.ErrNotExist) {
		return record, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", RecordPath(root, chainID), err)
	}
	if record.Contracts == nil {
		record.Contracts = make(map[string]ContractDeployment)
	}
	return record, nil
}

// SaveDeployments merges contracts into the chain's record and writes it.
// Contracts not redeployed keep their previous entries.
func SaveDeployments(root string, chainID uint64, contracts map[string]ContractDeployment, now time.Time) (*DeploymentRecord, error) {
	record, err := LoadRecord(root, chainID)
	if err != nil {
		return nil, err
	}

	stamp := now.UTC().Format(time.RFC3339)
	record.ChainID = chainID
	record.ChainName = ChainName(chainID)
	record.LastDeployedAt = stamp
	for name, deployment := range contracts {
		if deployment.DeployedAt == "" {
			deployment.DeployedAt = stamp
		}
		record.Contracts[name] = deployment
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, err
	}

	path := RecordPath(root, chainID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return record, nil
}
