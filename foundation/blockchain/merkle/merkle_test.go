// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.

package merkle_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/contentledger/notary/foundation/blockchain/merkle"
)

// Data uses the sha256 hashing algorithm for the merkle tree.
type Data struct {
	x string
}

// Hash hashes the values using sha256.
func (d Data) Hash() (string, error) {
	h := sha256.Sum256([]byte(d.x))
	return hex.EncodeToString(h[:]), nil
}

// Equals tests for equality of two piece of data.
func (d Data) Equals(other Data) bool {
	return d.x == other.x
}

// =============================================================================

func Test_NewTreeMatchesRoot(t *testing.T) {
	for i := 0; i < len(table); i++ {
		tree, err := merkle.NewTree(table[i].data)
		if err != nil {
			t.Fatalf("[case:%d] error: unexpected error: %v", table[i].testCaseId, err)
		}

		exp := merkle.Root(hashes(t, table[i].data))
		if tree.MerkleRoot != exp {
			t.Errorf("[case:%d] error: expected hash equal to %s got %s", table[i].testCaseId, exp, tree.MerkleRoot)
		}
	}
}

func Test_EmptyTree(t *testing.T) {
	if _, err := merkle.NewTree([]Data{}); err == nil {
		t.Errorf("error: expected an error constructing a tree with no content")
	}

	if root := merkle.Root(nil); root != "" {
		t.Errorf("error: expected empty root got %s", root)
	}
}

func Test_SingleLeaf(t *testing.T) {
	data := []Data{{x: "Hello"}}
	leaf, _ := data[0].Hash()

	tree, err := merkle.NewTree(data)
	if err != nil {
		t.Fatalf("error: unexpected error: %v", err)
	}

	if tree.MerkleRoot != leaf {
		t.Errorf("error: expected root of one leaf tree to be the leaf, got %s", tree.MerkleRoot)
	}

	if root := merkle.Root([]string{leaf}); root != leaf {
		t.Errorf("error: expected root of one hash to be the hash, got %s", root)
	}
}

func Test_RootPairsHexStrings(t *testing.T) {
	a := "aaa"
	b := "bbb"
	c := "ccc"

	ab := sha256.Sum256([]byte(a + b))
	cc := sha256.Sum256([]byte(c + c))
	root := sha256.Sum256([]byte(hex.EncodeToString(ab[:]) + hex.EncodeToString(cc[:])))
	exp := hex.EncodeToString(root[:])

	input := []string{a, b, c}
	if got := merkle.Root(input); got != exp {
		t.Errorf("error: expected hash equal to %s got %s", exp, got)
	}

	if len(input) != 3 {
		t.Errorf("error: expected input to be left untouched, got %d elements", len(input))
	}
}

func Test_Proof(t *testing.T) {
	for i := 0; i < len(table); i++ {
		tree, err := merkle.NewTree(table[i].data)
		if err != nil {
			t.Fatalf("[case:%d] error: unexpected error: %v", table[i].testCaseId, err)
		}

		for j := 0; j < len(table[i].data); j++ {
			proof, order, err := tree.Proof(table[i].data[j])
			if err != nil {
				t.Fatalf("[case:%d] error: unexpected proof error: %v", table[i].testCaseId, err)
			}

			leaf, _ := table[i].data[j].Hash()
			if err := merkle.VerifyProof(leaf, proof, order, tree.MerkleRoot); err != nil {
				t.Errorf("[case:%d] error: expected proof for leaf %d to verify: %v", table[i].testCaseId, j, err)
			}

			if err := merkle.VerifyProof(leaf, proof, order, "00"); err == nil {
				t.Errorf("[case:%d] error: expected proof for leaf %d to fail against the wrong root", table[i].testCaseId, j)
			}
		}

		if _, _, err := tree.Proof(table[i].notInContents); err == nil {
			t.Errorf("[case:%d] error: expected an error for data not in the tree", table[i].testCaseId)
		}
	}
}

// =============================================================================

func hashes(t *testing.T, data []Data) []string {
	out := make([]string, len(data))
	for i, d := range data {
		h, err := d.Hash()
		if err != nil {
			t.Fatalf("error: unexpected hash error: %v", err)
		}
		out[i] = h
	}

	return out
}

var table = []struct {
	testCaseId    int
	data          []Data
	notInContents Data
}{
	{
		testCaseId:    1,
		data:          []Data{{x: "Hello"}},
		notInContents: Data{x: "NotInTestTable"},
	},
	{
		testCaseId:    2,
		data:          []Data{{x: "Hello"}, {x: "Hi"}, {x: "Hey"}, {x: "Hola"}},
		notInContents: Data{x: "NotInTestTable"},
	},
	{
		testCaseId:    3,
		data:          []Data{{x: "Hello"}, {x: "Hi"}, {x: "Hey"}},
		notInContents: Data{x: "NotInTestTable"},
	},
	{
		testCaseId:    4,
		data:          []Data{{x: "Hello"}, {x: "Hi"}, {x: "Hey"}, {x: "Greetings"}, {x: "Hola"}},
		notInContents: Data{x: "NotInTestTable"},
	},
	{
		testCaseId:    5,
		data:          []Data{{x: "123"}, {x: "234"}, {x: "345"}, {x: "456"}, {x: "1123"}, {x: "2234"}, {x: "3345"}, {x: "4456"}},
		notInContents: Data{x: "NotInTestTable"},
	},
	{
		testCaseId:    6,
		data:          []Data{{x: "123"}, {x: "234"}, {x: "345"}, {x: "456"}, {x: "1123"}, {x: "2234"}, {x: "3345"}, {x: "4456"}, {x: "5567"}},
		notInContents: Data{x: "NotInTestTable"},
	},
}
