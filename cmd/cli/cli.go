package cli

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/msmt-labs/mssmt/lib"
	"github.com/msmt-labs/mssmt/metrics"
	"github.com/msmt-labs/mssmt/mssmt"
	"github.com/msmt-labs/mssmt/rpc"
	"github.com/msmt-labs/mssmt/storage"
)

// numberPrinter formats large sums with thousands separators rather than a bare
// run of digits
var numberPrinter = message.NewPrinter(language.English)

var (
	dataDirPath string
	log         = lib.NewDefaultLogger()
)

var rootCmd = &cobra.Command{
	Use:   "mssmt",
	Short: "mssmt is a command line interface for a merkle-sum sparse merkle tree",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirPath, "data-dir", lib.DefaultDataDirPath(), "path to the node's data directory")
	rootCmd.AddCommand(insertCmd, getCmd, deleteCmd, proofCmd, rootHashCmd, sumCmd, serveCmd, importCmd)
}

// Execute() runs the configured command, returning any error for main() to translate into an exit code
func Execute() error {
	return rootCmd.Execute()
}

func openStore() (*storage.Store, lib.ErrorI) {
	mainConf := lib.DefaultMainConfig()
	if mainConf.KeyBitWidth/8 != mssmt.KeySize {
		return nil, lib.ErrInvalidArgument()
	}
	conf := lib.DefaultStoreConfig()
	conf.DataDirPath = dataDirPath
	return storage.NewStore(conf, log)
}

func parseKeyArg(s string) (mssmt.Key, error) {
	var key mssmt.Key
	bz, err := hex.DecodeString(s)
	if err != nil || len(bz) != mssmt.KeySize {
		return key, fmt.Errorf("key must be a %d-byte hex string", mssmt.KeySize)
	}
	copy(key[:], bz)
	return key, nil
}

var insertCmd = &cobra.Command{
	Use:   "insert <hex-key> <value> <sum>",
	Short: "inserts or updates a (value, sum) pair at the given key",
	Args:  cobra.ExactArgs(3),
	RunE: func(_ *cobra.Command, args []string) error {
		key, err := parseKeyArg(args[0])
		if err != nil {
			return err
		}
		var sum uint64
		if _, err = fmt.Sscanf(args[2], "%d", &sum); err != nil {
			return err
		}
		store, sErr := openStore()
		if sErr != nil {
			return sErr
		}
		defer store.Close()
		tree, lErr := store.LoadTree()
		if lErr != nil {
			return lErr
		}
		if _, iErr := mssmt.Insert(tree, key, []byte(args[1]), sum); iErr != nil {
			return iErr
		}
		if pErr := store.Put(key, []byte(args[1]), sum); pErr != nil {
			return pErr
		}
		log.Infof("inserted key %s", args[0])
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <hex-key>",
	Short: "retrieves the (value, sum) pair stored at the given key",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		key, err := parseKeyArg(args[0])
		if err != nil {
			return err
		}
		store, sErr := openStore()
		if sErr != nil {
			return sErr
		}
		defer store.Close()
		tree, lErr := store.LoadTree()
		if lErr != nil {
			return lErr
		}
		value, sum, gErr := mssmt.Get(tree, key)
		if gErr != nil {
			return gErr
		}
		_, _ = numberPrinter.Printf("value=%s sum=%d\n", value, sum)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <hex-key>",
	Short: "deletes the entry at the given key",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		key, err := parseKeyArg(args[0])
		if err != nil {
			return err
		}
		store, sErr := openStore()
		if sErr != nil {
			return sErr
		}
		defer store.Close()
		tree, lErr := store.LoadTree()
		if lErr != nil {
			return lErr
		}
		if _, dErr := mssmt.Delete(tree, key); dErr != nil {
			return dErr
		}
		if dErr := store.Delete(key); dErr != nil {
			return dErr
		}
		log.Infof("deleted key %s", args[0])
		return nil
	},
}

var proofCmd = &cobra.Command{
	Use:   "proof <hex-key>",
	Short: "prints the merkle proof for the given key as a JSON sibling list",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		key, err := parseKeyArg(args[0])
		if err != nil {
			return err
		}
		store, sErr := openStore()
		if sErr != nil {
			return sErr
		}
		defer store.Close()
		tree, lErr := store.LoadTree()
		if lErr != nil {
			return lErr
		}
		proof := mssmt.MerkleProof(tree, key)
		bz, jErr := lib.MarshalJSONIndent(proof)
		if jErr != nil {
			return jErr
		}
		fmt.Println(string(bz))
		return nil
	},
}

var rootHashCmd = &cobra.Command{
	Use:   "root",
	Short: "prints the tree's current root hash",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, sErr := openStore()
		if sErr != nil {
			return sErr
		}
		defer store.Close()
		tree, lErr := store.LoadTree()
		if lErr != nil {
			return lErr
		}
		fmt.Println(hex.EncodeToString(mssmt.RootHash(tree)))
		return nil
	},
}

var sumCmd = &cobra.Command{
	Use:   "sum",
	Short: "prints the tree's current total sum",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, sErr := openStore()
		if sErr != nil {
			return sErr
		}
		defer store.Close()
		tree, lErr := store.LoadTree()
		if lErr != nil {
			return lErr
		}
		_, _ = numberPrinter.Printf("%d\n", mssmt.TotalSum(tree))
		return nil
	},
}

// parseImportLine() parses one "<hex-key> <value> <sum>" line of an import file
func parseImportLine(line string) (storage.Entry, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return storage.Entry{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	key, err := parseKeyArg(fields[0])
	if err != nil {
		return storage.Entry{}, err
	}
	sum, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return storage.Entry{}, err
	}
	return storage.Entry{Key: key, Value: []byte(fields[1]), Sum: sum}, nil
}

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "bulk-loads (key, value, sum) entries from a file, one '<hex-key> <value> <sum>' triple per line",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		var entries []storage.Entry
		scanner := bufio.NewScanner(f)
		for lineNo := 1; scanner.Scan(); lineNo++ {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			entry, pErr := parseImportLine(line)
			if pErr != nil {
				return fmt.Errorf("line %d: %w", lineNo, pErr)
			}
			entries = append(entries, entry)
		}
		if sErr := scanner.Err(); sErr != nil {
			return sErr
		}

		store, sErr := openStore()
		if sErr != nil {
			return sErr
		}
		defer store.Close()
		if pErr := store.PutBatch(entries); pErr != nil {
			return pErr
		}
		log.Infof("imported %d entries from %s", len(entries), args[0])
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "starts the RPC and metrics servers over the tree persisted in the data directory",
	RunE: func(_ *cobra.Command, _ []string) error {
		conf := lib.DefaultConfig()
		conf.DataDirPath = dataDirPath
		store, sErr := openStore()
		if sErr != nil {
			return sErr
		}
		tree, lErr := store.LoadTree()
		if lErr != nil {
			return lErr
		}
		m := metrics.NewMetrics()
		if conf.MetricsConfig.Enabled {
			go func() {
				_ = metrics.Serve(conf.MetricsConfig.PrometheusAddress, log)
			}()
		}
		server := rpc.NewServer(conf.RPCConfig, store, m, tree, log)
		return server.Start()
	},
}
