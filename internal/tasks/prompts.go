package tasks

import "github.com/xkilldash9x/deskgen/api/schemas"

// Placeholders understood by prompt templates, authored or built-in.
const (
	placeholderIconLabel = "[icon_label]"
	placeholderIconList  = "[icon_list]"
)

// defaultPrompts back the catalog's authored templates when a task kind has
// none. Wait prompts describe the loading state only; they never name a
// click target, since the paired action is a wait.
var defaultPrompts = map[schemas.TaskKind][]string{
	schemas.TaskClickDesktopIcon: {
		"Double-click on the [icon_label] icon on the desktop.",
		"Open [icon_label] by double-clicking its desktop icon.",
	},
	schemas.TaskClickTaskbarIcon: {
		"Double-click on [icon_label] in the taskbar.",
		"Open [icon_label] from the taskbar.",
	},
	schemas.TaskIconListClick: {
		"The desktop shows these icons in order: [icon_list]. Click on the [icon_label] icon.",
		"Visible icons, left to right: [icon_list]. Click [icon_label].",
	},
	schemas.TaskWaitLoading: {
		"A loading screen is visible. What action should you take?",
		"The application is starting up. What should you do?",
		"The screen shows a splash panel that has not finished loading.",
	},
}
