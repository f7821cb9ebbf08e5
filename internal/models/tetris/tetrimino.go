package tetris

import (
	"fmt"
	"image/color"
)

// PieceType はテトリミノの種類を表します。
type PieceType int

const (
	TypeI PieceType = iota // 0: I-ミノ (シアン)
	TypeO                  // 1: O-ミノ (黄色)
	TypeT                  // 2: T-ミノ (紫)
	TypeS                  // 3: S-ミノ (緑)
	TypeZ                  // 4: Z-ミノ (赤)
	TypeJ                  // 5: J-ミノ (青)
	TypeL                  // 6: L-ミノ (オレンジ)
)

const (
	PieceTypeCount = 7 // テトリミノの種類数
	RotationStates = 4 // 回転状態の数 (0, 90, 180, 270 度)
	CellsPerPiece  = 4 // 1つのテトリミノを構成するブロック数
)

// Point はボード上の整数座標、またはテトリミノ基準点からの相対座標です。
// y は上方向に増加します（y=0 が最下段）。
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add は2つの座標を足し合わせた結果を返します。
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// 1マス分の移動量です。
var (
	Down  = Point{X: 0, Y: -1}
	Left  = Point{X: -1, Y: 0}
	Right = Point{X: 1, Y: 0}
)

// Shape は1つの回転状態における4ブロックの相対座標です。
type Shape [CellsPerPiece]Point

// shapeTable は [PieceType][RotationIndex] で引く定数テーブルです。
// 座標は基準点 (0,0) からの相対値で、y は上向きです。
// 実行時に書き換えることはありません。
var shapeTable = [PieceTypeCount][RotationStates]Shape{
	TypeI: {
		{{-1, 0}, {0, 0}, {1, 0}, {2, 0}}, // 0度 (横)
		{{0, -1}, {0, 0}, {0, 1}, {0, 2}}, // 90度 (縦)
		{{-1, 0}, {0, 0}, {1, 0}, {2, 0}}, // 180度
		{{0, -1}, {0, 0}, {0, 1}, {0, 2}}, // 270度
	},
	TypeO: { // 回転しても形は変わらない
		{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	},
	TypeT: {
		{{-1, 0}, {0, 0}, {1, 0}, {0, 1}},
		{{0, -1}, {0, 0}, {0, 1}, {1, 0}},
		{{-1, 0}, {0, 0}, {1, 0}, {0, -1}},
		{{0, -1}, {0, 0}, {0, 1}, {-1, 0}},
	},
	TypeS: {
		{{-1, 0}, {0, 0}, {0, 1}, {1, 1}},
		{{0, 1}, {0, 0}, {1, 0}, {1, -1}},
		{{-1, 0}, {0, 0}, {0, 1}, {1, 1}},
		{{0, 1}, {0, 0}, {1, 0}, {1, -1}},
	},
	TypeZ: {
		{{0, 0}, {1, 0}, {-1, 1}, {0, 1}},
		{{0, -1}, {0, 0}, {1, 0}, {1, 1}},
		{{0, 0}, {1, 0}, {-1, 1}, {0, 1}},
		{{0, -1}, {0, 0}, {1, 0}, {1, 1}},
	},
	TypeJ: {
		{{-1, 1}, {-1, 0}, {0, 0}, {1, 0}},
		{{0, -1}, {0, 0}, {0, 1}, {1, 1}},
		{{-1, 0}, {0, 0}, {1, 0}, {1, -1}},
		{{-1, -1}, {0, -1}, {0, 0}, {0, 1}},
	},
	TypeL: {
		{{-1, 0}, {0, 0}, {1, 0}, {1, 1}},
		{{0, -1}, {0, 0}, {0, 1}, {1, -1}},
		{{-1, -1}, {-1, 0}, {0, 0}, {1, 0}},
		{{-1, 1}, {0, -1}, {0, 0}, {0, 1}},
	},
}

// wallKicks は回転が失敗したときに試す基準点のずらし方です。
// 左、右、上、左2、右2 の順で、全種類・全回転状態で共通です。
var wallKicks = [...]Point{
	{X: -1, Y: 0},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: -2, Y: 0},
	{X: 2, Y: 0},
}

// WallKicks は壁蹴りの候補を試す順番で返します。
func WallKicks() []Point {
	kicks := make([]Point, len(wallKicks))
	copy(kicks, wallKicks[:])
	return kicks
}

// NormalizeRotation は回転インデックスを 0..3 に丸めます。負の値も扱えます。
func NormalizeRotation(rotation int) int {
	r := rotation % RotationStates
	if r < 0 {
		r += RotationStates
	}
	return r
}

// Offsets は指定した種類と回転状態のブロック相対座標を返します。
// 無効な PieceType の場合はゼロ値の Shape を返します。
func Offsets(t PieceType, rotation int) Shape {
	if !t.Valid() {
		return Shape{}
	}
	return shapeTable[t][NormalizeRotation(rotation)]
}

// Cells は基準点 anchor に置いたときのボード上の絶対座標を返します。
func Cells(t PieceType, rotation int, anchor Point) [CellsPerPiece]Point {
	var cells [CellsPerPiece]Point
	for i, offset := range Offsets(t, rotation) {
		cells[i] = anchor.Add(offset)
	}
	return cells
}

// AllPieceTypes は全てのPieceTypeを定義順で返します。
func AllPieceTypes() []PieceType {
	return []PieceType{TypeI, TypeO, TypeT, TypeS, TypeZ, TypeJ, TypeL}
}

// Valid は PieceType が定義済みの値かどうかを返します。
func (t PieceType) Valid() bool {
	return t >= TypeI && t <= TypeL
}

// Block はこの種類のテトリミノが固定されたときのBlockTypeを返します。
func (t PieceType) Block() BlockType {
	if !t.Valid() {
		return BlockEmpty
	}
	return BlockType(t + 1) // PieceType (0-6) を BlockType (1-7) に変換
}

var pieceNames = [PieceTypeCount]string{"I", "O", "T", "S", "Z", "J", "L"}

// String は "I", "O" などの名前を返します。
func (t PieceType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("PieceType(%d)", int(t))
	}
	return pieceNames[t]
}

// ParsePieceType は文字列から PieceType を得ます。
func ParsePieceType(s string) (PieceType, error) {
	for i, name := range pieceNames {
		if name == s {
			return PieceType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown piece type: %q", s)
}

// MarshalText はJSONで "T" のような文字列として出力するために使います。
func (t PieceType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid piece type: %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *PieceType) UnmarshalText(text []byte) error {
	parsed, err := ParsePieceType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// pieceColors は各テトリミノの表示色です。描画側が参照します。
var pieceColors = [PieceTypeCount]color.RGBA{
	TypeI: {R: 0, G: 255, B: 255, A: 255}, // シアン
	TypeO: {R: 255, G: 255, B: 0, A: 255}, // 黄色
	TypeT: {R: 128, G: 0, B: 128, A: 255}, // 紫
	TypeS: {R: 0, G: 255, B: 0, A: 255},   // 緑
	TypeZ: {R: 255, G: 0, B: 0, A: 255},   // 赤
	TypeJ: {R: 0, G: 0, B: 255, A: 255},   // 青
	TypeL: {R: 255, G: 128, B: 0, A: 255}, // オレンジ
}

// Color はテトリミノの表示色を返します。
func (t PieceType) Color() color.RGBA {
	if !t.Valid() {
		return color.RGBA{A: 255}
	}
	return pieceColors[t]
}
