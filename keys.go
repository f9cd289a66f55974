// Copyright (c) 2014 Utkan Güngördü <utkan@freeconsole.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cuckoo

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// ToKey converts a Go value into the 64-bit key a Filter stores.
// Integers widen directly. Strings and byte slices are folded into a
// key via their first 8 bytes, zero-padded if shorter — the filter
// only ever hashes keys (including the ones it keeps in the shadow
// table), so the mapping only needs to be deterministic, not
// reversible.
func ToKey(data interface{}) (uint64, error) {
	switch v := reflect.ValueOf(data); v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(v.Int()), nil
	case reflect.String:
		return bytesToKey([]byte(v.String())), nil
	case reflect.Slice:
		if b, ok := data.([]byte); ok {
			return bytesToKey(b), nil
		}
	}
	return 0, fmt.Errorf("cuckoo: cannot convert %T to a key", data)
}

func bytesToKey(b []byte) uint64 {
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:])
}
