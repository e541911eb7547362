package transact

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/faktum/pkg/codec"
	"github.com/cuemby/faktum/pkg/value"
)

type txMetaRecord struct {
	Id       value.TxId
	Validity value.Validity
	Comment  string
}

func encodeTxMeta(r txMetaRecord) ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("transact: encode tx meta: %w", err)
	}
	return raw, nil
}

func txMetaKey(id value.TxId) []byte {
	return codec.EncodeTxMetaKey(id)
}
