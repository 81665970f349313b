package protocol

// Channel word layout:
//
//	bit 23      scan parity (commander words)
//	bits 19..22 action
//	bits 0..18  payload
const (
	ParityBit   Word = 1 << 23
	actionShift      = 19
	actionMask  Word = 0xF << actionShift
	PayloadBits      = 19
	PayloadMask Word = 1<<PayloadBits - 1

	// AxisBit marks a Boundary payload as a y coordinate.
	AxisBit Word = 1 << CoordBits

	roleShift      = LocationBits
	roleMask  Word = 0x3 << roleShift

	BoundaryCodeBits      = 9
	boundaryCodeMask Word = 1<<BoundaryCodeBits - 1
	sideShift             = CoordBits
)

type Action uint8

const (
	ActionNone Action = 0

	// Subordinate to commander.
	ActionCommanderLocation Action = 1
	ActionCommanderID       Action = 2
	ActionBoundary          Action = 3
	ActionDistress          Action = 4

	// Subordinate to subordinate.
	ActionAdopt Action = 5
	ActionLost  Action = 6

	// Commander to subordinates.
	ActionOneBoundary      Action = 8
	ActionTwoBoundaries    Action = 9
	ActionTarget           Action = 10
	ActionSpawnInstruction Action = 11

	// ActionUnset is what a never-written channel opens to.
	ActionUnset Action = 15
)

var actionNames = map[Action]string{
	ActionNone:              "NONE",
	ActionCommanderLocation: "COMMANDER_LOCATION",
	ActionCommanderID:       "COMMANDER_ID",
	ActionBoundary:          "BOUNDARY",
	ActionDistress:          "DISTRESS",
	ActionAdopt:             "ADOPT",
	ActionLost:              "LOST",
	ActionOneBoundary:       "ONE_BOUNDARY",
	ActionTwoBoundaries:     "TWO_BOUNDARIES",
	ActionTarget:            "TARGET",
	ActionSpawnInstruction:  "SPAWN_INSTRUCTION",
	ActionUnset:             "UNSET",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "UNKNOWN"
}

// Role distinguishes enforcers that guard home from those sent at targets.
type Role uint8

const (
	RoleNone      Role = 0
	RoleDefensive Role = 1
	RoleOffensive Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleDefensive:
		return "defensive"
	case RoleOffensive:
		return "offensive"
	default:
		return "none"
	}
}

// Side names one map edge. Sides index Bounds and boundary codes.
type Side uint8

const (
	SideLowX Side = iota
	SideHighX
	SideLowY
	SideHighY
)

func (w Word) Action() Action { return Action((w & actionMask) >> actionShift) }
func (w Word) Payload() Word  { return w & PayloadMask }
func (w Word) Parity() bool   { return w&ParityBit != 0 }
func (w Word) Role() Role     { return Role((w & roleMask) >> roleShift) }
func (w Word) ID() int        { return int(w & PayloadMask) }

// Message builds a word from an action and payload. Payload bits above
// PayloadBits are dropped.
func Message(a Action, payload Word) Word {
	return Word(a)<<actionShift&actionMask | payload&PayloadMask
}

func CommanderLocation(l Loc) Word { return Message(ActionCommanderLocation, EncodeLocation(l)) }
func CommanderID(id int) Word      { return Message(ActionCommanderID, Word(id)) }
func Distress(l Loc) Word          { return Message(ActionDistress, EncodeLocation(l)) }
func Adopt(commanderID int) Word   { return Message(ActionAdopt, Word(commanderID)) }
func Lost() Word                   { return Message(ActionLost, 0) }

// Boundary reports a map edge coordinate; yAxis selects the y axis.
func Boundary(yAxis bool, c int) Word {
	p := EncodeCoordinate(c)
	if yAxis {
		p |= AxisBit
	}
	return Message(ActionBoundary, p)
}

func Target(r Role, l Loc) Word {
	return Message(ActionTarget, Word(r)<<roleShift&roleMask|EncodeLocation(l))
}

func SpawnInstruction(r Role) Word {
	return Message(ActionSpawnInstruction, Word(r)<<roleShift&roleMask)
}

// BoundaryCode packs a side and coordinate residue into BoundaryCodeBits.
func BoundaryCode(s Side, c int) Word {
	return Word(s)<<sideShift | EncodeCoordinate(c)
}

// SplitBoundaryCode returns the side and coordinate residue of a boundary code.
func SplitBoundaryCode(code Word) (Side, Word) {
	code &= boundaryCodeMask
	return Side(code >> sideShift), code & coordMask
}

func OneBoundary(code Word) Word { return Message(ActionOneBoundary, code&boundaryCodeMask) }

func TwoBoundaries(first, second Word) Word {
	return Message(ActionTwoBoundaries, (second&boundaryCodeMask)<<BoundaryCodeBits|first&boundaryCodeMask)
}

// BoundaryCodes unpacks the codes carried by a OneBoundary or TwoBoundaries word.
func (w Word) BoundaryCodes() []Word {
	switch w.Action() {
	case ActionOneBoundary:
		return []Word{w & boundaryCodeMask}
	case ActionTwoBoundaries:
		return []Word{w & boundaryCodeMask, (w >> BoundaryCodeBits) & boundaryCodeMask}
	default:
		return nil
	}
}
