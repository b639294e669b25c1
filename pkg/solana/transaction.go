package solana

import (
	"encoding/binary"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL uint64 = 1_000_000_000

// AccountMeta describes how an instruction touches an account.
type AccountMeta struct {
	PublicKey  PublicKey
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation inside a transaction.
type Instruction struct {
	ProgramID PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// Transaction is the unsigned payment payload handed to a wallet signer.
// In production signing happens wallet-side; the dev signer compiles and
// signs server-side so checkout can run without a browser wallet.
type Transaction struct {
	RecentBlockhash string
	FeePayer        PublicKey
	Instructions    []Instruction
}

// NewTransferInstruction builds a system-program lamport transfer.
func NewTransferInstruction(from, to PublicKey, lamports uint64) Instruction {
	// System program transfer: u32 instruction index (2) + u64 lamports.
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2)
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{PublicKey: from, IsSigner: true, IsWritable: true},
			{PublicKey: to, IsSigner: false, IsWritable: true},
		},
		Data: data,
	}
}

// NewMemoInstruction builds an SPL memo instruction tagging the payment.
func NewMemoInstruction(signer PublicKey, memo string) Instruction {
	return Instruction{
		ProgramID: MemoProgramID,
		Accounts: []AccountMeta{
			{PublicKey: signer, IsSigner: true, IsWritable: false},
		},
		Data: []byte(memo),
	}
}

// NewPaymentTransaction assembles the canonical purchase transaction: one
// transfer to the merchant wallet plus a memo identifying the purchase.
func NewPaymentTransaction(blockhash string, payer, merchant PublicKey, lamports uint64, memo string) *Transaction {
	instructions := []Instruction{
		NewTransferInstruction(payer, merchant, lamports),
	}
	if memo != "" {
		instructions = append(instructions, NewMemoInstruction(payer, memo))
	}
	return &Transaction{
		RecentBlockhash: blockhash,
		FeePayer:        payer,
		Instructions:    instructions,
	}
}
