package bbtx

// maxDecimalLen holds the sign and all digits of math.MinInt32.
const maxDecimalLen = 11

// WriteString outputs text followed by trailing spaces up to width.
// Nothing is written for an empty text and text is never truncated.
func (c *Channel) WriteString(text string, width int) {
	if text == "" {
		return
	}
	for n := 0; n < len(text); n++ {
		c.WriteByte(text[n])
	}
	for n := len(text); n < width; n++ {
		c.WriteByte(' ')
	}
}

// WriteDecimal outputs value in ASCII decimal with leading spaces up to width.
func (c *Channel) WriteDecimal(value int32, width int) {
	var digits [maxDecimalLen]byte
	length := 0

	// widened so that negating math.MinInt32 can't overflow.
	v := int64(value)
	negative := v < 0
	if negative {
		v = -v
	}
	for v != 0 {
		digits[length] = byte(v%10) + '0'
		v /= 10
		length++
	}
	if value == 0 {
		digits[length] = '0'
		length++
	} else if negative {
		digits[length] = '-'
		length++
	}

	for n := length; n < width; n++ {
		c.WriteByte(' ')
	}
	for length > 0 {
		length--
		c.WriteByte(digits[length])
	}
}

// WriteUint8 outputs value as 2 uppercase hex digits.
func (c *Channel) WriteUint8(value uint8) {
	c.WriteByte(hexDigit(value >> 4))
	c.WriteByte(hexDigit(value & 0xf))
}

// WriteUint16 outputs value as 4 uppercase hex digits.
func (c *Channel) WriteUint16(value uint16) {
	c.writeHex(uint32(value), 2)
}

// WriteUint32 outputs value as 8 uppercase hex digits.
func (c *Channel) WriteUint32(value uint32) {
	c.writeHex(value, 4)
}

// writeHex outputs the low size bytes of value, most significant first.
func (c *Channel) writeHex(value uint32, size uint) {
	for n := size; n > 0; n-- {
		c.WriteUint8(uint8(value >> (BitsPerByte * (n - 1))))
	}
}

func hexDigit(nibble uint8) byte {
	if nibble < 10 {
		return '0' + nibble
	}
	return 'A' + nibble - 10
}
