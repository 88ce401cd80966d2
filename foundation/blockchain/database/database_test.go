package database_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ardanlabs/petition/foundation/blockchain/database"
	"github.com/ardanlabs/petition/foundation/blockchain/database/storage/memory"
	"golang.org/x/sync/errgroup"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// chainFile is a ledger written by an independent implementation of the
// same hashing rules.
const chainFile = `[
  {
    "index": 0,
    "timestamp": 1700000000.0,
    "transaction_type": "GENESIS",
    "transaction_data": {},
    "previous_hash": "0",
    "hash": "5355efa126f1ec1a1a5bd1e0780c8e9b62d165b0c9e240f59b1f4b7296640c35"
  },
  {
    "index": 1,
    "timestamp": 1700000001.25,
    "transaction_type": "CREATE_PETITION",
    "transaction_data": {
      "petition_id": "rhino-save",
      "petition_text": "Save the rhino",
      "creator": "alice"
    },
    "previous_hash": "5355efa126f1ec1a1a5bd1e0780c8e9b62d165b0c9e240f59b1f4b7296640c35",
    "hash": "65a9ba2bbb5d0be45127a565626d29cc1e5718784a08b24e0157bd56de93054c"
  }
]`

// looseChainFile was written by an implementation that stores fields the
// typed payloads don't model: an empty creator, an extra payload key, an
// integer timestamp and a transaction type this ledger doesn't know.
const looseChainFile = `[
  {
    "index": 0,
    "timestamp": 1700000000.0,
    "transaction_type": "GENESIS",
    "transaction_data": {},
    "previous_hash": "0",
    "hash": "5355efa126f1ec1a1a5bd1e0780c8e9b62d165b0c9e240f59b1f4b7296640c35"
  },
  {
    "index": 1,
    "timestamp": 1700000001.25,
    "transaction_type": "CREATE_PETITION",
    "transaction_data": {
      "petition_id": "rhino-save",
      "petition_text": "Save the rhino",
      "creator": ""
    },
    "previous_hash": "5355efa126f1ec1a1a5bd1e0780c8e9b62d165b0c9e240f59b1f4b7296640c35",
    "hash": "afb3ecb48f2f4e51d3235fd9997994e4a0e9ac57408a34def69b73bf832c42b7"
  },
  {
    "index": 2,
    "timestamp": 1700000002,
    "transaction_type": "CREATE_PETITION",
    "transaction_data": {
      "petition_id": "owl-save",
      "petition_text": "Save the owl",
      "creator": "carol",
      "category": "birds"
    },
    "previous_hash": "afb3ecb48f2f4e51d3235fd9997994e4a0e9ac57408a34def69b73bf832c42b7",
    "hash": "bf74e153ac1eb7d41c05d6f3b67daebf0dff95d2928e8088879bdd39e35aa985"
  },
  {
    "index": 3,
    "timestamp": 1700000003.5,
    "transaction_type": "VOTE",
    "transaction_data": {
      "petition_id": "owl-save",
      "choice": "yes"
    },
    "previous_hash": "bf74e153ac1eb7d41c05d6f3b67daebf0dff95d2928e8088879bdd39e35aa985",
    "hash": "72f8ec64de9c0a397fb3d82377c5f55c0003453410fbf54651af45ab5b59c8da"
  }
]`

// flaky is a storage whose saves can be made to fail.
type flaky struct {
	*memory.Memory
	mu   sync.Mutex
	fail bool
}

func (f *flaky) Save(blocks []database.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return errors.New("disk full")
	}
	return f.Memory.Save(blocks)
}

// corrupt is a storage whose stored chain can't be decoded.
type corrupt struct {
	*memory.Memory
}

func (corrupt) Load() ([]database.Block, error) {
	return nil, fmt.Errorf("%w: unexpected end of JSON input", database.ErrCorrupt)
}

func createPetition(id string) database.CreatePetitionTx {
	return database.CreatePetitionTx{PetitionID: id, PetitionText: "text " + id, Creator: "alice"}
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to start a ledger from empty storage.")
	{
		strg := memory.New()
		db, err := database.New(strg, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to open the database.", success)

		blocks := db.Blocks()
		if len(blocks) != 1 {
			t.Fatalf("\t%s\tShould have exactly one block, got %d.", failed, len(blocks))
		}
		t.Logf("\t%s\tShould have exactly one block.", success)

		genesis := blocks[0]
		if genesis.Index != 0 || genesis.PrevHash != "0" || genesis.TxType != database.TxTypeGenesis {
			t.Fatalf("\t%s\tShould have a proper genesis block: %+v", failed, genesis)
		}
		if genesis.Hash != genesis.CalculateHash() {
			t.Fatalf("\t%s\tShould have a genesis hash matching its content.", failed)
		}
		t.Logf("\t%s\tShould have a proper genesis block.", success)

		if strg.Saves() != 1 {
			t.Fatalf("\t%s\tShould persist the genesis block before returning.", failed)
		}
		t.Logf("\t%s\tShould persist the genesis block before returning.", success)
	}
}

func Test_Append(t *testing.T) {
	const n = 10

	t.Log("Given the need to grow the chain.")
	{
		db, err := database.New(memory.New(), nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}

		for i := 0; i < n; i++ {
			if _, err := db.AppendAndPersist(createPetition(fmt.Sprintf("p%d", i))); err != nil {
				t.Fatalf("\t%s\tShould be able to append block %d: %v", failed, i, err)
			}
		}
		t.Logf("\t%s\tShould be able to append %d blocks.", success, n)

		blocks := db.Blocks()
		if len(blocks) != n+1 {
			t.Fatalf("\t%s\tShould have %d blocks, got %d.", failed, n+1, len(blocks))
		}

		for i := 1; i < len(blocks); i++ {
			if blocks[i].Index != uint64(i) {
				t.Fatalf("\t%s\tShould have contiguous indexes, got %d at %d.", failed, blocks[i].Index, i)
			}
			if err := blocks[i].ValidateBlock(blocks[i-1]); err != nil {
				t.Fatalf("\t%s\tShould link every block to its parent: %v", failed, err)
			}
		}
		t.Logf("\t%s\tShould link every block to its parent.", success)

		if db.LatestBlock().Hash != blocks[n].Hash {
			t.Fatalf("\t%s\tShould report the last block as latest.", failed)
		}
		t.Logf("\t%s\tShould report the last block as latest.", success)
	}
}

func Test_ConcurrentAppend(t *testing.T) {
	const writers = 8
	const perWriter = 10

	t.Log("Given the need to append from many goroutines at once.")
	{
		db, err := database.New(memory.New(), nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}

		var g errgroup.Group
		for w := 0; w < writers; w++ {
			w := w
			g.Go(func() error {
				for i := 0; i < perWriter; i++ {
					if _, err := db.AppendAndPersist(createPetition(fmt.Sprintf("w%d-%d", w, i))); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("\t%s\tShould be able to append concurrently: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to append concurrently.", success)

		blocks := db.Blocks()
		if len(blocks) != writers*perWriter+1 {
			t.Fatalf("\t%s\tShould not lose any block, got %d.", failed, len(blocks))
		}

		seen := make(map[uint64]bool)
		for i, block := range blocks {
			if seen[block.Index] {
				t.Fatalf("\t%s\tShould never repeat index %d.", failed, block.Index)
			}
			seen[block.Index] = true

			if i > 0 {
				if err := block.ValidateBlock(blocks[i-1]); err != nil {
					t.Fatalf("\t%s\tShould keep every link intact: %v", failed, err)
				}
			}
		}
		t.Logf("\t%s\tShould keep unique indexes and intact links.", success)
	}
}

func Test_SaveFailure(t *testing.T) {
	t.Log("Given the need to report storage failures without losing state.")
	{
		strg := flaky{Memory: memory.New()}
		db, err := database.New(&strg, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}

		if _, err := db.AppendAndPersist(createPetition("a")); err != nil {
			t.Fatalf("\t%s\tShould be able to append: %v", failed, err)
		}
		before := db.LatestBlock()

		strg.mu.Lock()
		strg.fail = true
		strg.mu.Unlock()

		_, err = db.AppendAndPersist(createPetition("b"))
		if !errors.Is(err, database.ErrStorage) {
			t.Fatalf("\t%s\tShould get back a storage error: %v", failed, err)
		}
		t.Logf("\t%s\tShould get back a storage error.", success)

		if db.LatestBlock().Hash != before.Hash || len(db.Blocks()) != 2 {
			t.Fatalf("\t%s\tShould leave the chain untouched.", failed)
		}

		stored, _ := strg.Load()
		if len(stored) != 2 {
			t.Fatalf("\t%s\tShould leave the stored chain untouched, got %d blocks.", failed, len(stored))
		}
		t.Logf("\t%s\tShould leave the chain untouched.", success)
	}
}

func Test_CheckAborts(t *testing.T) {
	t.Log("Given the need to refuse an append from inside the write lock.")
	{
		db, err := database.New(memory.New(), nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}

		errDup := errors.New("duplicate")
		_, err = db.Append(func(chain []database.Block) (database.TxData, error) {
			if len(chain) != 1 {
				t.Errorf("\t%s\tShould hand the current chain to the check.", failed)
			}
			return nil, errDup
		})
		if !errors.Is(err, errDup) {
			t.Fatalf("\t%s\tShould get back the check error: %v", failed, err)
		}
		if len(db.Blocks()) != 1 {
			t.Fatalf("\t%s\tShould not append when the check fails.", failed)
		}
		t.Logf("\t%s\tShould not append when the check fails.", success)

		_, err = db.Append(func(chain []database.Block) (database.TxData, error) {
			return nil, nil
		})
		if !errors.Is(err, database.ErrNoPayload) {
			t.Fatalf("\t%s\tShould refuse a missing payload: %v", failed, err)
		}
		t.Logf("\t%s\tShould refuse a missing payload.", success)
	}
}

func Test_CorruptRecovery(t *testing.T) {
	t.Log("Given the need to recover from a corrupt stored chain.")
	{
		var events []string
		ev := func(v string, args ...any) {
			events = append(events, fmt.Sprintf(v, args...))
		}

		strg := corrupt{Memory: memory.New()}
		db, err := database.New(strg, ev)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}

		if len(db.Blocks()) != 1 || db.Blocks()[0].TxType != database.TxTypeGenesis {
			t.Fatalf("\t%s\tShould reinitialize with a genesis block.", failed)
		}
		t.Logf("\t%s\tShould reinitialize with a genesis block.", success)

		var loud bool
		for _, e := range events {
			if strings.Contains(e, "CORRUPT") {
				loud = true
			}
		}
		if !loud {
			t.Fatalf("\t%s\tShould report the corruption loudly: %v", failed, events)
		}
		t.Logf("\t%s\tShould report the corruption loudly.", success)
	}
}

func Test_CompatibleHashing(t *testing.T) {
	t.Log("Given the need to read a chain written by another implementation.")
	{
		var blocks []database.Block
		if err := json.Unmarshal([]byte(chainFile), &blocks); err != nil {
			t.Fatalf("\t%s\tShould be able to decode the chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to decode the chain.", success)

		for _, block := range blocks {
			if got := block.CalculateHash(); got != block.Hash {
				t.Logf("got: %s", got)
				t.Logf("exp: %s", block.Hash)
				t.Fatalf("\t%s\tShould compute the same hash for block %d.", failed, block.Index)
			}
		}
		t.Logf("\t%s\tShould compute the same hash for every block.", success)

		tx, ok := blocks[1].TxData.(database.CreatePetitionTx)
		if !ok || tx.PetitionID != "rhino-save" || tx.Creator != "alice" {
			t.Fatalf("\t%s\tShould decode the typed payload: %+v", failed, blocks[1].TxData)
		}
		t.Logf("\t%s\tShould decode the typed payload.", success)

		if err := blocks[1].ValidateBlock(blocks[0]); err != nil {
			t.Fatalf("\t%s\tShould link the blocks: %v", failed, err)
		}
		t.Logf("\t%s\tShould link the blocks.", success)

		data, err := json.Marshal(blocks)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to encode the chain: %v", failed, err)
		}

		var again []database.Block
		if err := json.Unmarshal(data, &again); err != nil {
			t.Fatalf("\t%s\tShould be able to decode the chain again: %v", failed, err)
		}
		if again[0].CalculateHash() != blocks[0].Hash || again[1].CalculateHash() != blocks[1].Hash {
			t.Fatalf("\t%s\tShould keep the hashes stable across a rewrite.", failed)
		}
		t.Logf("\t%s\tShould keep the hashes stable across a rewrite.", success)
	}
}

func Test_LooseChain(t *testing.T) {
	t.Log("Given the need to keep blocks written with fields the payloads don't model.")
	{
		var blocks []database.Block
		if err := json.Unmarshal([]byte(looseChainFile), &blocks); err != nil {
			t.Fatalf("\t%s\tShould be able to decode the chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to decode the chain.", success)

		for _, block := range blocks {
			if got := block.CalculateHash(); got != block.Hash {
				t.Logf("got: %s", got)
				t.Logf("exp: %s", block.Hash)
				t.Fatalf("\t%s\tShould compute the stored hash for block %d.", failed, block.Index)
			}
		}
		t.Logf("\t%s\tShould compute the stored hash for every block.", success)

		if tx, ok := blocks[1].TxData.(database.CreatePetitionTx); !ok || tx.Creator != "" {
			t.Fatalf("\t%s\tShould decode the petition with an empty creator: %+v", failed, blocks[1].TxData)
		}
		if tx, ok := blocks[3].TxData.(database.UnknownTx); !ok || tx.Type() != "VOTE" {
			t.Fatalf("\t%s\tShould keep the unknown block as an opaque payload: %+v", failed, blocks[3].TxData)
		}
		t.Logf("\t%s\tShould decode every payload.", success)

		strg := memory.New(blocks...)
		db, err := database.New(strg, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}
		if len(db.Blocks()) != 4 {
			t.Fatalf("\t%s\tShould keep the whole chain, got %d blocks.", failed, len(db.Blocks()))
		}
		t.Logf("\t%s\tShould keep the whole chain.", success)

		if _, err := db.AppendAndPersist(createPetition("c")); err != nil {
			t.Fatalf("\t%s\tShould be able to append: %v", failed, err)
		}

		data, err := json.Marshal(db.Blocks())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to encode the chain: %v", failed, err)
		}
		for _, want := range []string{`"creator":""`, `"category":"birds"`, `"timestamp":1700000002,`, `"choice":"yes"`} {
			if !strings.Contains(string(data), want) {
				t.Fatalf("\t%s\tShould write the stored blocks back unchanged, missing %s.", failed, want)
			}
		}
		t.Logf("\t%s\tShould write the stored blocks back unchanged.", success)

		var again []database.Block
		if err := json.Unmarshal(data, &again); err != nil {
			t.Fatalf("\t%s\tShould be able to decode the chain again: %v", failed, err)
		}
		for i := 1; i < len(again); i++ {
			if err := again[i].ValidateBlock(again[i-1]); err != nil {
				t.Fatalf("\t%s\tShould keep the chain intact across a rewrite: %v", failed, err)
			}
		}
		t.Logf("\t%s\tShould keep the chain intact across a rewrite.", success)

		tx := blocks[1].TxData.(database.CreatePetitionTx)
		tx.Creator = "mallory"
		blocks[1].TxData = tx
		if blocks[1].CalculateHash() == blocks[1].Hash {
			t.Fatalf("\t%s\tShould detect a change to a stored block.", failed)
		}
		t.Logf("\t%s\tShould detect a change to a stored block.", success)
	}
}
