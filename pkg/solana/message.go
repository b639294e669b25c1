package solana

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
)

// compiledMessage is the legacy wire layout of a transaction message.
type compiledMessage struct {
	numRequiredSignatures       byte
	numReadonlySignedAccounts   byte
	numReadonlyUnsignedAccounts byte
	accountKeys                 []PublicKey
	recentBlockhash             [32]byte
	instructions                []compiledInstruction
}

type compiledInstruction struct {
	programIDIndex byte
	accountIndexes []byte
	data           []byte
}

// CompileMessage flattens the transaction into the legacy message layout:
// fee payer first, then writable signers, readonly signers, writable
// non-signers, readonly non-signers, then program ids.
func (t *Transaction) CompileMessage() ([]byte, error) {
	if t.RecentBlockhash == "" {
		return nil, fmt.Errorf("recent blockhash is required")
	}
	if t.FeePayer.IsZero() {
		return nil, fmt.Errorf("fee payer is required")
	}
	blockhash, err := base58.Decode(t.RecentBlockhash)
	if err != nil || len(blockhash) != 32 {
		return nil, fmt.Errorf("invalid recent blockhash %q", t.RecentBlockhash)
	}

	msg := compiledMessage{}
	copy(msg.recentBlockhash[:], blockhash)

	keys := t.orderedAccountKeys()
	msg.accountKeys = keys

	index := make(map[PublicKey]byte, len(keys))
	for i, key := range keys {
		index[key] = byte(i)
	}

	meta := t.accountMetaByKey()
	for _, key := range keys {
		m := meta[key]
		if m.IsSigner {
			msg.numRequiredSignatures++
			if !m.IsWritable {
				msg.numReadonlySignedAccounts++
			}
		} else if !m.IsWritable {
			msg.numReadonlyUnsignedAccounts++
		}
	}

	for _, ix := range t.Instructions {
		compiled := compiledInstruction{
			programIDIndex: index[ix.ProgramID],
			data:           ix.Data,
		}
		for _, acc := range ix.Accounts {
			compiled.accountIndexes = append(compiled.accountIndexes, index[acc.PublicKey])
		}
		msg.instructions = append(msg.instructions, compiled)
	}

	return msg.serialize(), nil
}

// orderedAccountKeys produces the deduplicated account list in message
// order, fee payer first.
func (t *Transaction) orderedAccountKeys() []PublicKey {
	meta := t.accountMetaByKey()

	seen := map[PublicKey]bool{t.FeePayer: true}
	keys := []PublicKey{t.FeePayer}

	appendClass := func(signer, writable bool) {
		for _, ix := range t.Instructions {
			for _, acc := range ix.Accounts {
				m := meta[acc.PublicKey]
				if m.IsSigner != signer || m.IsWritable != writable || seen[acc.PublicKey] {
					continue
				}
				seen[acc.PublicKey] = true
				keys = append(keys, acc.PublicKey)
			}
		}
	}

	appendClass(true, true)
	appendClass(true, false)
	appendClass(false, true)
	appendClass(false, false)

	for _, ix := range t.Instructions {
		if !seen[ix.ProgramID] {
			seen[ix.ProgramID] = true
			keys = append(keys, ix.ProgramID)
		}
	}
	return keys
}

// accountMetaByKey merges metas for accounts referenced more than once.
// A key is a signer or writable if any reference says so.
func (t *Transaction) accountMetaByKey() map[PublicKey]AccountMeta {
	meta := map[PublicKey]AccountMeta{
		t.FeePayer: {PublicKey: t.FeePayer, IsSigner: true, IsWritable: true},
	}
	for _, ix := range t.Instructions {
		for _, acc := range ix.Accounts {
			m, ok := meta[acc.PublicKey]
			if !ok {
				meta[acc.PublicKey] = acc
				continue
			}
			m.IsSigner = m.IsSigner || acc.IsSigner
			m.IsWritable = m.IsWritable || acc.IsWritable
			meta[acc.PublicKey] = m
		}
	}
	return meta
}

func (m compiledMessage) serialize() []byte {
	var buf bytes.Buffer
	buf.WriteByte(m.numRequiredSignatures)
	buf.WriteByte(m.numReadonlySignedAccounts)
	buf.WriteByte(m.numReadonlyUnsignedAccounts)

	writeCompactU16(&buf, len(m.accountKeys))
	for _, key := range m.accountKeys {
		buf.Write(key[:])
	}

	buf.Write(m.recentBlockhash[:])

	writeCompactU16(&buf, len(m.instructions))
	for _, ix := range m.instructions {
		buf.WriteByte(ix.programIDIndex)
		writeCompactU16(&buf, len(ix.accountIndexes))
		buf.Write(ix.accountIndexes)
		writeCompactU16(&buf, len(ix.data))
		buf.Write(ix.data)
	}
	return buf.Bytes()
}

// writeCompactU16 emits the shortvec length encoding used by the wire
// format.
func writeCompactU16(buf *bytes.Buffer, value int) {
	v := uint16(value)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}
