package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// broadcastRun is the subset of forge's run-latest.json the engine reads.
type broadcastRun struct {
	Transactions []struct {
		Hash            string `json:"hash"`
		TransactionType string `json:"transactionType"`
		ContractName    string `json:"contractName"`
		ContractAddress string `json:"contractAddress"`
	} `json:"transactions"`
	Receipts []struct {
		TransactionHash string `json:"transactionHash"`
		BlockNumber     string `json:"blockNumber"`
	} `json:"receipts"`
}

// BroadcastFile returns forge's latest broadcast record for a script run.
func BroadcastFile(broadcastDir, deployScript string, chainID uint64) string {
	return filepath.Join(broadcastDir, filepath.Base(deployScript), strconv.FormatUint(chainID, 10), "run-latest.json")
}

// ParseBroadcast extracts contract creations from a broadcast record.
func ParseBroadcast(data []byte) (map[string]ContractDeployment, error) {
	var run broadcastRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parsing broadcast record: %w", err)
	}

	blocks := make(map[string]uint64, len(run.Receipts))
	for _, receipt := range run.Receipts {
		if n, err := parseHexUint(receipt.BlockNumber); err == nil {
			blocks[strings.ToLower(receipt.TransactionHash)] = n
		}
	}

	contracts := make(map[string]ContractDeployment)
	for _, tx := range run.Transactions {
		if !strings.HasPrefix(tx.TransactionType, "CREATE") || tx.ContractName == "" || tx.ContractAddress == "" {
			continue
		}
		contracts[tx.ContractName] = ContractDeployment{
			Address:     tx.ContractAddress,
			TxHash:      tx.Hash,
			BlockNumber: blocks[strings.ToLower(tx.Hash)],
		}
	}
	return contracts, nil
}

// ReadBroadcast loads and parses the broadcast record at path.
func ReadBroadcast(path string) (map[string]ContractDeployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBroadcast(data)
}

var deployedLine = regexp.MustCompile(`(\w+) deployed (?:to|at):?\s*(0x[a-fA-F0-9]{40})`)

// ParseDeployOutput scans script console output for "<Name> deployed to 0x..."
// lines. Transaction hashes are not recoverable this way.
func ParseDeployOutput(stdout string) map[string]ContractDeployment {
	contracts := make(map[string]ContractDeployment)
	for _, match := range deployedLine.FindAllStringSubmatch(stdout, -1) {
		contracts[match[1]] = ContractDeployment{Address: match[2]}
	}
	return contracts
}

func parseHexUint(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
