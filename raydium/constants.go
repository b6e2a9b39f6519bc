package raydium

import "github.com/gagliardetto/solana-go"

var (
	RAYDIUM_V4_PROGRAM_ID = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	// Owner of every AMM v4 vault. A healthy new pool is the top holder of its own base token.
	RAYDIUM_AUTHORITY_V4_ID = solana.MustPublicKeyFromBase58("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")
	OPENBOOK_PROGRAM_ID     = solana.MustPublicKeyFromBase58("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")

	NATIVE_SOL_MINT_PROGRAM_ID = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	// AMM v4 pools leave the withdraw queue unset.
	WITHDRAW_QUEUE_UNUSED = solana.SystemProgramID
)

const (
	POOL_VERSION    uint8 = 4
	MARKET_VERSION  uint8 = 3
	NATIVE_DECIMALS uint8 = 9

	// InitLogMarker appears in the program log of an initialize2 instruction.
	InitLogMarker = "init_pc_amount"
)
