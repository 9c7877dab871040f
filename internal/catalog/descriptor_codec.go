package catalog

import (
	"encoding/binary"
	"fmt"

	"github.com/sqlweave/engine/internal/wire"
)

// EncodeSchemaDescriptor serializes desc into the §6 binary descriptor
// format: a sequence of wire-framed strings and little-endian counts,
// produced by internal/pgschema after introspecting a live database and
// consumed back by DecodeSchemaDescriptor in AddSchemaDescriptor's caller.
func EncodeSchemaDescriptor(desc SchemaDescriptor) []byte {
	var w wire.Writer
	w.Put([]byte(desc.DatabaseName))
	w.Put([]byte(desc.SchemaName))
	w.Put(uint32Bytes(uint32(len(desc.Tables))))
	for _, t := range desc.Tables {
		w.Put([]byte(t.TableName))
		w.Put(uint32Bytes(uint32(len(t.Columns))))
		for _, c := range t.Columns {
			w.Put([]byte(c.ColumnName))
		}
	}
	return w.Bytes()
}

// DecodeSchemaDescriptor reverses EncodeSchemaDescriptor.
func DecodeSchemaDescriptor(data []byte) (SchemaDescriptor, error) {
	r := wire.NewReader(data)
	dbName, err := nextString(r)
	if err != nil {
		return SchemaDescriptor{}, fmt.Errorf("decode schema descriptor: database name: %w", err)
	}
	schemaName, err := nextString(r)
	if err != nil {
		return SchemaDescriptor{}, fmt.Errorf("decode schema descriptor: schema name: %w", err)
	}
	tableCount, err := nextUint32(r)
	if err != nil {
		return SchemaDescriptor{}, fmt.Errorf("decode schema descriptor: table count: %w", err)
	}
	desc := SchemaDescriptor{DatabaseName: dbName, SchemaName: schemaName}
	for i := uint32(0); i < tableCount; i++ {
		tableName, err := nextString(r)
		if err != nil {
			return SchemaDescriptor{}, fmt.Errorf("decode schema descriptor: table %d name: %w", i, err)
		}
		colCount, err := nextUint32(r)
		if err != nil {
			return SchemaDescriptor{}, fmt.Errorf("decode schema descriptor: table %d column count: %w", i, err)
		}
		table := SchemaTable{TableName: tableName}
		for j := uint32(0); j < colCount; j++ {
			colName, err := nextString(r)
			if err != nil {
				return SchemaDescriptor{}, fmt.Errorf("decode schema descriptor: table %d column %d: %w", i, j, err)
			}
			table.Columns = append(table.Columns, SchemaTableColumn{ColumnName: colName})
		}
		desc.Tables = append(desc.Tables, table)
	}
	return desc, nil
}

func uint32Bytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func nextString(r *wire.Reader) (string, error) {
	b, ok, err := r.Next()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("unexpected end of descriptor")
	}
	return string(b), nil
}

func nextUint32(r *wire.Reader) (uint32, error) {
	b, ok, err := r.Next()
	if err != nil {
		return 0, err
	}
	if !ok || len(b) != 4 {
		return 0, fmt.Errorf("malformed count field")
	}
	return binary.LittleEndian.Uint32(b), nil
}
