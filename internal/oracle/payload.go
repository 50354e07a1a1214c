package oracle

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/celestiaorg/nmt"
	"github.com/celestiaorg/nmt/namespace"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tendermint/tendermint/crypto/merkle"

	"github.com/opstack-da/celestia-fp/internal/blobstream"
	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
	"github.com/opstack-da/celestia-fp/internal/shareproof"
)

// payloadFormatVersion tags the binary encoding. Bump this if the field set
// or layout ever changes, per spec.md §4.2: "version the format by bumping
// a magic byte if ever changed."
const payloadFormatVersion byte = 1

// OraclePayload is the canonical witness bundle served as the preimage for
// a CelestiaDA hint (spec.md §3). Field order and widths are part of the
// protocol.
type OraclePayload struct {
	BlobBytes          []byte
	DataRoot           [32]byte
	DataCommitment     [32]byte
	DataRootTupleProof blobstream.BinaryMerkleProof
	ShareProof         shareproof.ShareProof
	ProofNonce         *uint256.Int
	StorageRoot        common.Hash
	StorageProof       [][]byte
}

// ToBytes serializes the payload with the teacher's own length-prefixed
// little-endian scheme (das/celestia/blob.go's MarshalBinary/writeBytes
// pattern), generalized from two variable-length fields to the full
// eight-field oracle payload and prefixed with a format version byte.
func (p *OraclePayload) ToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte(payloadFormatVersion)

	if err := writeBytes(buf, p.BlobBytes); err != nil {
		return nil, err
	}
	buf.Write(p.DataRoot[:])
	buf.Write(p.DataCommitment[:])
	if err := writeMerkleProof(buf, p.DataRootTupleProof); err != nil {
		return nil, err
	}
	if err := writeShareProof(buf, p.ShareProof); err != nil {
		return nil, err
	}
	nonce := p.ProofNonce
	if nonce == nil {
		nonce = new(uint256.Int)
	}
	nonceBytes := nonce.Bytes32()
	buf.Write(nonceBytes[:])
	buf.Write(p.StorageRoot[:])
	if err := binary.Write(buf, binary.LittleEndian, uint64(len(p.StorageProof))); err != nil {
		return nil, err
	}
	for _, node := range p.StorageProof {
		if err := writeBytes(buf, node); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// FromBytes decodes a payload previously produced by ToBytes. Decoding
// rejects a version mismatch, short inputs, and trailing bytes
// (spec.md §4.2).
func FromBytes(data []byte) (*OraclePayload, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("oracle payload: empty input: %w", daerr.ErrPayloadCorrupt)
	}
	if data[0] != payloadFormatVersion {
		return nil, fmt.Errorf("oracle payload: version %d != %d: %w", data[0], payloadFormatVersion, daerr.ErrPayloadCorrupt)
	}
	r := bytes.NewReader(data[1:])

	p := &OraclePayload{}
	var err error
	if p.BlobBytes, err = readBytes(r); err != nil {
		return nil, corrupt("blob_bytes", err)
	}
	if _, err = readFull(r, p.DataRoot[:]); err != nil {
		return nil, corrupt("data_root", err)
	}
	if _, err = readFull(r, p.DataCommitment[:]); err != nil {
		return nil, corrupt("data_commitment", err)
	}
	if p.DataRootTupleProof, err = readMerkleProof(r); err != nil {
		return nil, corrupt("data_root_tuple_proof", err)
	}
	if p.ShareProof, err = readShareProof(r); err != nil {
		return nil, corrupt("share_proof", err)
	}
	var nonceBytes [32]byte
	if _, err = readFull(r, nonceBytes[:]); err != nil {
		return nil, corrupt("proof_nonce", err)
	}
	p.ProofNonce = new(uint256.Int).SetBytes32(nonceBytes[:])
	var storageRoot [32]byte
	if _, err = readFull(r, storageRoot[:]); err != nil {
		return nil, corrupt("storage_root", err)
	}
	p.StorageRoot = common.Hash(storageRoot)

	var numProofNodes uint64
	if err = binary.Read(r, binary.LittleEndian, &numProofNodes); err != nil {
		return nil, corrupt("storage_proof_len", err)
	}
	p.StorageProof = make([][]byte, numProofNodes)
	for i := range p.StorageProof {
		if p.StorageProof[i], err = readBytes(r); err != nil {
			return nil, corrupt("storage_proof_node", err)
		}
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("oracle payload: %d trailing bytes: %w", r.Len(), daerr.ErrPayloadCorrupt)
	}
	return p, nil
}

func corrupt(field string, err error) error {
	return fmt.Errorf("oracle payload: field %s: %w: %w", field, err, daerr.ErrPayloadCorrupt)
}

// writeBytes writes a length-prefixed byte slice, the same helper the
// teacher's BlobPointer codec uses.
func writeBytes(buf *bytes.Buffer, data []byte) error {
	if err := binary.Write(buf, binary.LittleEndian, uint64(len(data))); err != nil {
		return err
	}
	_, err := buf.Write(data)
	return err
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var length uint64
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	data := make([]byte, length)
	if _, err := readFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func readFull(r *bytes.Reader, dst []byte) (int, error) {
	n := 0
	for n < len(dst) {
		m, err := r.Read(dst[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, fmt.Errorf("unexpected eof")
		}
	}
	return n, nil
}

func writeMerkleProof(buf *bytes.Buffer, p blobstream.BinaryMerkleProof) error {
	if err := binary.Write(buf, binary.LittleEndian, p.Key); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, p.NumLeaves); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint64(len(p.SideNodes))); err != nil {
		return err
	}
	for _, side := range p.SideNodes {
		buf.Write(side[:])
	}
	return nil
}

func readMerkleProof(r *bytes.Reader) (blobstream.BinaryMerkleProof, error) {
	var p blobstream.BinaryMerkleProof
	if err := binary.Read(r, binary.LittleEndian, &p.Key); err != nil {
		return p, err
	}
	if err := binary.Read(r, binary.LittleEndian, &p.NumLeaves); err != nil {
		return p, err
	}
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return p, err
	}
	p.SideNodes = make([]common.Hash, n)
	for i := range p.SideNodes {
		if _, err := readFull(r, p.SideNodes[i][:]); err != nil {
			return p, err
		}
	}
	return p, nil
}

func writeShareProof(buf *bytes.Buffer, sp shareproof.ShareProof) error {
	if err := writeBytes(buf, sp.NamespaceID); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint64(len(sp.Rows))); err != nil {
		return err
	}
	for i, row := range sp.Rows {
		buf.Write(row.RowRoot[:])
		if err := binary.Write(buf, binary.LittleEndian, uint64(len(row.Shares))); err != nil {
			return err
		}
		for _, s := range row.Shares {
			if err := writeBytes(buf, s); err != nil {
				return err
			}
		}
		if err := writeNMTProof(buf, row.Proof); err != nil {
			return err
		}
		if err := writeMerkleAuditProof(buf, sp.RowRootProofs[i]); err != nil {
			return err
		}
	}
	return nil
}

func readShareProof(r *bytes.Reader) (shareproof.ShareProof, error) {
	var sp shareproof.ShareProof
	nsBytes, err := readBytes(r)
	if err != nil {
		return sp, err
	}
	sp.NamespaceID = namespace.ID(nsBytes)

	var numRows uint64
	if err := binary.Read(r, binary.LittleEndian, &numRows); err != nil {
		return sp, err
	}
	sp.Rows = make([]shareproof.RowShareProof, numRows)
	sp.RowRootProofs = make([]*merkle.Proof, numRows)
	for i := range sp.Rows {
		var rowRoot [32]byte
		if _, err := readFull(r, rowRoot[:]); err != nil {
			return sp, err
		}
		sp.Rows[i].RowRoot = common.Hash(rowRoot)

		var numShares uint64
		if err := binary.Read(r, binary.LittleEndian, &numShares); err != nil {
			return sp, err
		}
		shares := make([][]byte, numShares)
		for j := range shares {
			if shares[j], err = readBytes(r); err != nil {
				return sp, err
			}
		}
		sp.Rows[i].Shares = shares

		proof, err := readNMTProof(r)
		if err != nil {
			return sp, err
		}
		sp.Rows[i].Proof = proof

		auditProof, err := readMerkleAuditProof(r)
		if err != nil {
			return sp, err
		}
		sp.RowRootProofs[i] = auditProof
	}
	return sp, nil
}

func writeNMTProof(buf *bytes.Buffer, p *nmt.Proof) error {
	if p == nil {
		return fmt.Errorf("oracle payload: nil nmt proof")
	}
	if err := binary.Write(buf, binary.LittleEndian, int64(p.Start())); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, int64(p.End())); err != nil {
		return err
	}
	nodes := p.Nodes()
	if err := binary.Write(buf, binary.LittleEndian, uint64(len(nodes))); err != nil {
		return err
	}
	for _, n := range nodes {
		if err := writeBytes(buf, n); err != nil {
			return err
		}
	}
	ignore := byte(0)
	if p.IsMaxNamespaceIDIgnored() {
		ignore = 1
	}
	buf.WriteByte(ignore)
	return nil
}

func readNMTProof(r *bytes.Reader) (*nmt.Proof, error) {
	var start, end int64
	if err := binary.Read(r, binary.LittleEndian, &start); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &end); err != nil {
		return nil, err
	}
	var numNodes uint64
	if err := binary.Read(r, binary.LittleEndian, &numNodes); err != nil {
		return nil, err
	}
	nodes := make([][]byte, numNodes)
	var err error
	for i := range nodes {
		if nodes[i], err = readBytes(r); err != nil {
			return nil, err
		}
	}
	ignoreByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	proof := nmt.NewInclusionProof(int(start), int(end), nodes, ignoreByte == 1)
	return &proof, nil
}

func writeMerkleAuditProof(buf *bytes.Buffer, p *merkle.Proof) error {
	if p == nil {
		return fmt.Errorf("oracle payload: nil merkle audit proof")
	}
	if err := binary.Write(buf, binary.LittleEndian, p.Total); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, p.Index); err != nil {
		return err
	}
	if err := writeBytes(buf, p.LeafHash); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint64(len(p.Aunts))); err != nil {
		return err
	}
	for _, a := range p.Aunts {
		if err := writeBytes(buf, a); err != nil {
			return err
		}
	}
	return nil
}

func readMerkleAuditProof(r *bytes.Reader) (*merkle.Proof, error) {
	p := &merkle.Proof{}
	if err := binary.Read(r, binary.LittleEndian, &p.Total); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &p.Index); err != nil {
		return nil, err
	}
	var err error
	if p.LeafHash, err = readBytes(r); err != nil {
		return nil, err
	}
	var numAunts uint64
	if err := binary.Read(r, binary.LittleEndian, &numAunts); err != nil {
		return nil, err
	}
	p.Aunts = make([][]byte, numAunts)
	for i := range p.Aunts {
		if p.Aunts[i], err = readBytes(r); err != nil {
			return nil, err
		}
	}
	return p, nil
}
