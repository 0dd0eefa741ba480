package identity

// Words is the dictionary identifiers are drawn from. It must hold exactly 256
// distinct words so a single random byte selects one.
var Words = [256]string{
	"votes", "purer", "tills", "boggy", "folio", "husky", "smoke", "slain",
	"proud", "shops", "flaky", "elect", "polls", "harts", "trait", "night",
	"exist", "clews", "steam", "words", "cower", "aught", "dusky", "waked",
	"adapt", "weedy", "party", "score", "fixed", "puffs", "apple", "monks",
	"rungs", "cooed", "click", "rider", "peaks", "spied", "usage", "gusts",
	"warms", "foods", "query", "spiny", "tails", "plans", "dices", "arrow",
	"jaunt", "stall", "dodge", "stunt", "renew", "baths", "tutor", "signs",
	"glade", "saucy", "fears", "pound", "tends", "towel", "fools", "nonce",
	"above", "sinks", "roofs", "parry", "agree", "clump", "sally", "sneak",
	"ailed", "hater", "scaly", "caved", "ducts", "thank", "slyly", "annul",
	"alert", "wakes", "blunt", "mania", "clear", "major", "ocean", "grave",
	"hoist", "guess", "undid", "daunt", "shows", "raise", "allot", "pease",
	"junks", "catch", "knock", "amaze", "clamp", "stale", "taken", "snack",
	"trail", "drain", "croup", "bangs", "amity", "heard", "routs", "putty",
	"alien", "inane", "basic", "helms", "gravy", "soggy", "sever", "roman",
	"draft", "spurs", "champ", "excel", "chord", "swoop", "raced", "flick",
	"civil", "shear", "youth", "whisk", "humps", "quell", "billy", "groom",
	"could", "dives", "robin", "skirt", "risen", "saved", "nooks", "clime",
	"funds", "gowns", "grief", "tones", "rigid", "relay", "aimed", "hello",
	"heave", "brier", "sills", "pesky", "gland", "demon", "dared", "loyal",
	"tipsy", "snuff", "rules", "enrol", "isles", "coins", "sages", "watch",
	"piers", "lived", "teach", "panes", "rimes", "sleep", "mural", "braid",
	"extol", "gazes", "breed", "stink", "baits", "oiled", "tunic", "mound",
	"ponds", "burst", "ruled", "boxer", "gales", "repay", "copra", "payer",
	"conch", "tenet", "world", "muses", "lapse", "sedan", "lingo", "urges",
	"viola", "coups", "power", "point", "skate", "slump", "leaps", "tight",
	"lofty", "third", "goods", "astir", "there", "onset", "truly", "mutes",
	"erase", "moist", "feels", "manga", "amber", "yokes", "biped", "phase",
	"faced", "goose", "dwell", "munch", "pussy", "angry", "blots", "slops",
	"swore", "herds", "slang", "slate", "noose", "queer", "basis", "pints",
	"bunks", "mover", "spill", "rouse", "bulks", "tenth", "farms", "scene",
	"prank", "means", "enjoy", "money", "oaths", "pasty", "minus", "sward",
}
