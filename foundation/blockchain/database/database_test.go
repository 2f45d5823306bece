package database_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/contentledger/notary/foundation/blockchain/database"
	"github.com/contentledger/notary/foundation/blockchain/database/storage/memory"
	"github.com/contentledger/notary/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const difficulty = 2

// =============================================================================

func Test_POW(t *testing.T) {
	t.Log("Given the need to seal a block with proof of work.")
	{
		t.Logf("\tTest 0:\tWhen sealing two transactions on top of genesis.")
		{
			chain := buildChain(t, 1)
			block := chain[1]

			if !strings.HasPrefix(block.Hash, strings.Repeat("0", difficulty)) {
				t.Fatalf("\t%s\tTest 0:\tShould get a hash with %d leading zeros, got %s.", failed, difficulty, block.Hash)
			}
			t.Logf("\t%s\tTest 0:\tShould get a hash with %d leading zeros.", success, difficulty)

			if block.CalculateHash() != block.Hash {
				t.Fatalf("\t%s\tTest 0:\tShould reproduce the hash from the stored fields.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reproduce the hash from the stored fields.", success)

			if block.Number != 1 || block.PrevBlockHash != chain[0].Hash {
				t.Fatalf("\t%s\tTest 0:\tShould link to the genesis block, got number %d prev %s.", failed, block.Number, block.PrevBlockHash)
			}
			t.Logf("\t%s\tTest 0:\tShould link to the genesis block.", success)

			if len(block.Trans) != 3 || !block.Trans[2].IsReward() {
				t.Fatalf("\t%s\tTest 0:\tShould hold the submitted transactions and the reward, got %d.", failed, len(block.Trans))
			}
			t.Logf("\t%s\tTest 0:\tShould hold the submitted transactions and the reward.", success)
		}

		t.Logf("\tTest 1:\tWhen the context is cancelled.")
		{
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			tx, _ := database.NewTx("aaa", "", "tester", nil)
			_, err := database.POW(ctx, 64, database.NewGenesisBlock(), []database.Tx{tx}, noop)
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest 1:\tShould get back a cancelled error, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get back a cancelled error.", success)
		}
	}
}

func Test_Tampering(t *testing.T) {
	type table struct {
		name   string
		index  uint64
		tamper func(blocks []database.Block)
	}

	tt := []table{
		{
			name:   "nonce",
			index:  2,
			tamper: func(blocks []database.Block) { blocks[2].Nonce++ },
		},
		{
			name:   "previous hash",
			index:  1,
			tamper: func(blocks []database.Block) { blocks[1].PrevBlockHash = strings.Repeat("0", 64) },
		},
		{
			name:   "content hash",
			index:  3,
			tamper: func(blocks []database.Block) { blocks[3].Trans[0].ContentHash = "forged" },
		},
		{
			name:   "metadata",
			index:  2,
			tamper: func(blocks []database.Block) { blocks[2].Trans[0].Metadata["page"] = 99 },
		},
		{
			name:   "genesis",
			index:  0,
			tamper: func(blocks []database.Block) { blocks[0].TimeStamp++ },
		},
		{
			name:  "reordered",
			index: 2,
			tamper: func(blocks []database.Block) {
				blocks[2], blocks[3] = blocks[3], blocks[2]
			},
		},
	}

	t.Log("Given the need to detect changes to sealed blocks.")
	{
		chain := buildChain(t, 3)

		if vr := database.ValidateChain(chain, difficulty); !vr.Valid {
			t.Fatalf("\t%s\tShould start with a valid chain: %s", failed, vr.Error)
		}
		t.Logf("\t%s\tShould start with a valid chain.", success)

		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen tampering with the %s.", testID, tst.name)
				{
					blocks := make([]database.Block, len(chain))
					for i, block := range chain {
						blocks[i] = block.Clone()
					}

					tst.tamper(blocks)

					vr := database.ValidateChain(blocks, difficulty)
					if vr.Valid {
						t.Fatalf("\t%s\tTest %d:\tShould report the chain as invalid.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould report the chain as invalid.", success, testID)

					if vr.BlockIndex == nil || *vr.BlockIndex != tst.index {
						t.Fatalf("\t%s\tTest %d:\tShould report block %d, got %v: %s", failed, testID, tst.index, vr.BlockIndex, vr.Error)
					}
					t.Logf("\t%s\tTest %d:\tShould report block %d.", success, testID, tst.index)

					if !errors.Is(vr.Err(), database.ErrInvalidChain) {
						t.Fatalf("\t%s\tTest %d:\tShould convert to ErrInvalidChain.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould convert to ErrInvalidChain.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}

		if vr := database.ValidateChain(chain, difficulty); !vr.Valid {
			t.Fatalf("\t%s\tShould leave the original chain untouched: %s", failed, vr.Error)
		}
		t.Logf("\t%s\tShould leave the original chain untouched.", success)
	}
}

func Test_EmptyChain(t *testing.T) {
	vr := database.ValidateChain(nil, difficulty)
	if vr.Valid || vr.BlockIndex != nil || !strings.Contains(vr.Error, "no genesis") {
		t.Fatalf("Should report an empty chain as having no genesis, got %+v", vr)
	}
}

func Test_Database(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = difficulty

	t.Log("Given the need to manage the chain in memory.")
	{
		t.Logf("\tTest 0:\tWhen appending blocks and locating content.")
		{
			storage, _ := memory.New()

			db, err := database.New(gen, storage, noop)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the database: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct the database.", success)

			if vr := db.Validate(); vr.Valid {
				t.Fatalf("\t%s\tTest 0:\tShould report an empty chain as invalid.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould report an empty chain as invalid.", success)

			head, err := db.LatestBlock()
			if err != nil || head.Number != 0 || head.PrevBlockHash != database.ZeroHash {
				t.Fatalf("\t%s\tTest 0:\tShould create the genesis block, got %+v %v.", failed, head, err)
			}
			t.Logf("\t%s\tTest 0:\tShould create the genesis block.", success)

			again, _ := db.LatestBlock()
			if again.Hash != head.Hash {
				t.Fatalf("\t%s\tTest 0:\tShould create the genesis block only once.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould create the genesis block only once.", success)

			first := seal(t, head, "aaa", "bbb")
			if err := db.Append(first); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append block 1: %v", failed, err)
			}

			second := seal(t, first, "aaa", "ccc")
			if err := db.Append(second); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append block 2: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to append blocks.", success)

			stale := seal(t, first, "ddd")
			if err := db.Append(stale); !errors.Is(err, database.ErrHeadChanged) {
				t.Fatalf("\t%s\tTest 0:\tShould refuse a block built on an old head, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould refuse a block built on an old head.", success)

			loc, err := db.Locate("aaa")
			if err != nil || loc.BlockIndex != 1 || loc.BlockHash != first.Hash {
				t.Fatalf("\t%s\tTest 0:\tShould locate the first block holding the content, got %+v %v.", failed, loc, err)
			}
			t.Logf("\t%s\tTest 0:\tShould locate the first block holding the content.", success)

			loc, err = db.Locate("ccc")
			if err != nil || loc.BlockIndex != 2 || loc.Transaction.ContentHash != "ccc" {
				t.Fatalf("\t%s\tTest 0:\tShould locate content in block 2, got %+v %v.", failed, loc, err)
			}
			t.Logf("\t%s\tTest 0:\tShould locate content in block 2.", success)

			if _, err := db.Locate("ddd"); !errors.Is(err, database.ErrNotFound) {
				t.Fatalf("\t%s\tTest 0:\tShould not find content that was never sealed, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould not find content that was never sealed.", success)

			if got := db.QueryBlocksByNumber(1, 10); len(got) != 2 || got[1].Hash != second.Hash {
				t.Fatalf("\t%s\tTest 0:\tShould clamp the block query, got %d blocks.", failed, len(got))
			}
			t.Logf("\t%s\tTest 0:\tShould clamp the block query.", success)

			if vr := db.Validate(); !vr.Valid {
				t.Fatalf("\t%s\tTest 0:\tShould hold a valid chain: %s", failed, vr.Error)
			}
			t.Logf("\t%s\tTest 0:\tShould hold a valid chain.", success)

			reloaded, err := database.New(gen, storage, noop)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to reload the stored chain: %v", failed, err)
			}

			if latest, _ := reloaded.LatestBlock(); latest.Hash != second.Hash {
				t.Fatalf("\t%s\tTest 0:\tShould reload the same head.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reload the same head.", success)
		}

		t.Logf("\tTest 1:\tWhen the stored chain has been tampered with.")
		{
			storage, _ := memory.New()
			chain := buildChain(t, 2)
			chain[2].Trans[0].ContentHash = "forged"

			for _, block := range chain {
				storage.Write(block)
			}

			if _, err := database.New(gen, storage, noop); !errors.Is(err, database.ErrInvalidChain) {
				t.Fatalf("\t%s\tTest 1:\tShould refuse to load the chain, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould refuse to load the chain.", success)
		}
	}
}

func Test_Isolation(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = difficulty

	t.Log("Given the need to keep sealed blocks out of reach of callers.")
	{
		t.Logf("\tTest 0:\tWhen the caller changes nested metadata it handed over or got back.")
		{
			inner := map[string]any{"k": "v"}
			list := []any{"a", map[string]any{"b": 1}}

			tx, err := database.NewTx("aaa", "", "tester", map[string]any{"nested": inner, "list": list})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a tx: %v", failed, err)
			}

			inner["k"] = "changed"
			list[1].(map[string]any)["b"] = 2

			if tx.Metadata["nested"].(map[string]any)["k"] != "v" {
				t.Fatalf("\t%s\tTest 0:\tShould keep a private copy of the submitted metadata.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould keep a private copy of the submitted metadata.", success)

			storage, _ := memory.New()
			db, err := database.New(gen, storage, noop)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the database: %v", failed, err)
			}

			head, _ := db.LatestBlock()
			block, err := database.POW(context.Background(), difficulty, head, []database.Tx{tx}, noop)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to seal a block: %v", failed, err)
			}
			if err := db.Append(block); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append the block: %v", failed, err)
			}

			tx.Metadata["nested"].(map[string]any)["k"] = "changed"
			block.Trans[0].Metadata["nested"].(map[string]any)["k"] = "changed"

			latest, _ := db.LatestBlock()
			latest.Trans[0].Metadata["nested"].(map[string]any)["k"] = "changed"
			latest.Trans[0].Metadata["list"].([]any)[0] = "changed"

			loc, _ := db.Locate("aaa")
			loc.Transaction.Metadata["nested"].(map[string]any)["k"] = "changed"

			for _, b := range db.Blocks() {
				for _, tx := range b.Trans {
					if nested, ok := tx.Metadata["nested"].(map[string]any); ok {
						nested["k"] = "changed"
					}
				}
			}

			if vr := db.Validate(); !vr.Valid {
				t.Fatalf("\t%s\tTest 0:\tShould keep a valid chain: %s", failed, vr.Error)
			}
			t.Logf("\t%s\tTest 0:\tShould keep a valid chain.", success)
		}
	}
}

func Test_LocateTimestamp(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = difficulty

	t.Log("Given the need to report when content was recorded.")
	{
		t.Logf("\tTest 0:\tWhen the transaction is older than the block sealing it.")
		{
			storage, _ := memory.New()
			db, err := database.New(gen, storage, noop)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the database: %v", failed, err)
			}

			tx, err := database.NewTx("aaa", "", "tester", nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a tx: %v", failed, err)
			}
			tx.CreatedAt -= 3600

			head, _ := db.LatestBlock()
			block, err := database.POW(context.Background(), difficulty, head, []database.Tx{tx}, noop)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to seal a block: %v", failed, err)
			}
			if err := db.Append(block); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append the block: %v", failed, err)
			}

			loc, err := db.Locate("aaa")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould locate the content: %v", failed, err)
			}

			if loc.TimeStamp != tx.CreatedAt || loc.TimeStamp == block.TimeStamp {
				t.Logf("\t%s\tTest 0:\tgot: %d", failed, loc.TimeStamp)
				t.Logf("\t%s\tTest 0:\texp: %d", failed, tx.CreatedAt)
				t.Fatalf("\t%s\tTest 0:\tShould report the transaction time.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould report the transaction time.", success)
		}
	}
}

func Test_Digests(t *testing.T) {
	t.Log("Given the need to digest the transactions of a block.")
	{
		t.Logf("\tTest 0:\tWhen a transaction holds metadata that can't be encoded.")
		{
			good, err := database.NewTx("aaa", "", "tester", nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a tx: %v", failed, err)
			}

			bad := good
			bad.ID = "bad"
			bad.Metadata = map[string]any{"ch": make(chan int)}

			if _, err := database.NewTx("bbb", "", "tester", bad.Metadata); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould refuse to construct the tx.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould refuse to construct the tx.", success)

			digests, err := database.Digests([]database.Tx{good, bad})
			if err == nil || digests != nil {
				t.Fatalf("\t%s\tTest 0:\tShould report the failure instead of an empty digest, got %v.", failed, digests)
			}
			t.Logf("\t%s\tTest 0:\tShould report the failure instead of an empty digest.", success)

			if _, err := database.POW(context.Background(), difficulty, database.NewGenesisBlock(), []database.Tx{good, bad}, noop); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould refuse to seal the block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould refuse to seal the block.", success)
		}
	}
}

// =============================================================================

func noop(string, ...any) {}

func seal(t *testing.T, prev database.Block, contentHashes ...string) database.Block {
	var trans []database.Tx
	for i, hash := range contentHashes {
		tx, err := database.NewTx(hash, "", "tester", map[string]any{"page": i})
		if err != nil {
			t.Fatalf("Should be able to construct a tx: %s", err)
		}
		trans = append(trans, tx)
	}
	trans = append(trans, database.NewRewardTx("sealer", 1))

	block, err := database.POW(context.Background(), difficulty, prev, trans, noop)
	if err != nil {
		t.Fatalf("Should be able to seal a block: %s", err)
	}

	return block
}

func buildChain(t *testing.T, n int) []database.Block {
	chain := []database.Block{database.NewGenesisBlock()}
	for i := 0; i < n; i++ {
		chain = append(chain, seal(t, chain[len(chain)-1], "aaa", "bbb"))
	}

	return chain
}
