package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredParams(t *testing.T) {
	assert.Equal(t, []string{"PRIVATE_KEY", "OWNER_ADDRESS"}, RequiredParams(deployScript))
	assert.Empty(t, RequiredParams(`vm.envOr("X", 1);`))
}

func TestMissingParams(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == "SET" {
			return "1", true
		}
		if key == "EMPTY" {
			return "", true
		}
		return "", false
	}
	missing := MissingParams([]string{"PRIVATE_KEY", "SET", "EMPTY", "UNSET"}, AutoParams("http://x"), lookup)
	assert.Equal(t, []string{"EMPTY", "UNSET"}, missing)
}

func TestParseBroadcast(t *testing.T) {
	data := []byte(`{
  "transactions": [
    {"hash": "0xabc", "transactionType": "CREATE", "contractName": "Counter", "contractAddress": "0x5FbDB2315678afecb367f032d93F642f64180aa3"},
    {"hash": "0xdef", "transactionType": "CALL", "contractName": "Counter", "contractAddress": "0x5FbDB2315678afecb367f032d93F642f64180aa3"}
  ],
  "receipts": [
    {"transactionHash": "0xABC", "blockNumber": "0x1a"}
  ]
}`)

	contracts, err := ParseBroadcast(data)
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, ContractDeployment{
		Address:     "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		TxHash:      "0xabc",
		BlockNumber: 26,
	}, contracts["Counter"])
}

func TestBroadcastFile(t *testing.T) {
	got := BroadcastFile("/p/contracts/broadcast", "script/Deploy.s.sol", 31337)
	assert.Equal(t, filepath.Join("/p/contracts/broadcast", "Deploy.s.sol", "31337", "run-latest.json"), got)
}

func TestParseDeployOutput(t *testing.T) {
	out := "Token deployed at 0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0\nVault deployed to: 0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9\n"
	contracts := ParseDeployOutput(out)
	assert.Equal(t, "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0", contracts["Token"].Address)
	assert.Equal(t, "0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9", contracts["Vault"].Address)
}

func TestSaveDeploymentsMerges(t *testing.T) {
	root := t.TempDir()
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	_, err := SaveDeployments(root, 31337, map[string]ContractDeployment{
		"Token": {Address: "0x1"},
		"Vault": {Address: "0x2"},
	}, first)
	require.NoError(t, err)

	record, err := SaveDeployments(root, 31337, map[string]ContractDeployment{
		"Token": {Address: "0x3"},
	}, second)
	require.NoError(t, err)

	assert.Equal(t, "0x3", record.Contracts["Token"].Address)
	assert.Equal(t, "0x2", record.Contracts["Vault"].Address)
	assert.Equal(t, first.Format(time.RFC3339), record.Contracts["Vault"].DeployedAt)
	assert.Equal(t, second.Format(time.RFC3339), record.LastDeployedAt)

	_, err = os.Stat(filepath.Join(root, "deployments", "31337.json"))
	assert.NoError(t, err)
}

func TestChainName(t *testing.T) {
	assert.Equal(t, "Sepolia", ChainName(11155111))
	assert.Equal(t, "Chain 42", ChainName(42))
}
